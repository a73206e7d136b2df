package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/climate-farm/config"
	"github.com/user/climate-farm/internal/api"
	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/store"
	"github.com/user/climate-farm/internal/weather"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	dataDir := flag.String("data", "./assets/data", "Directory of rules and location files")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	// Load game data
	engine, locations, err := loadGameData(*dataDir, cfg.Game, logger)
	if err != nil {
		logger.Fatal("Failed to load game data", zap.Error(err))
	}

	// Open the database
	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	accounts := store.New(db, store.Options{
		TokenTTL:   cfg.Auth.TokenTTLDuration(),
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	// Weather provider
	provider, err := weather.New(cfg.Weather, logger)
	if err != nil {
		logger.Fatal("Failed to set up weather provider", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := api.NewHub(logger)
	go hub.Run(ctx)

	// Initialize session manager
	sessionManager := game.NewSessionManager(engine, locations, game.SessionConfig{
		TickInterval:           cfg.Game.TickDuration(),
		AutosaveInterval:       cfg.Game.AutosaveDuration(),
		WeatherRefreshInterval: cfg.Game.WeatherRefreshDuration(),
	}, cfg.Game.MaxSessions)
	sessionManager.SetLogger(logger)
	sessionManager.SetWeatherProvider(provider)
	sessionManager.SetSaveStore(accounts)
	sessionManager.SetHarvestRecorder(accounts)
	sessionManager.SetPublisher(hub)

	srv := api.NewServer(sessionManager, accounts, hub, logger)
	srv.SetWeather(provider)
	srv.SetPublicURL(cfg.Server.PublicURL)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Routes(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	go purgeTokens(ctx, accounts, logger)

	// Wait for shutdown signal
	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Owned sessions get their final save here
	sessionManager.StopAll()
	cancel()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Shutdown complete")
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

func loadGameData(dir string, cfg config.GameConfig, logger *zap.Logger) (*game.Engine, *game.LocationCatalog, error) {
	// Create data loader
	dataLoader := game.NewDataLoader(dir)

	// Load rules
	rules, err := dataLoader.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	logger.Info("Loaded rules", zap.Int("crops", len(rules.Crops)))

	// Load locations
	locations, err := dataLoader.LoadLocations(cfg.LocationsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load locations: %w", err)
	}
	logger.Info("Loaded locations", zap.Int("count", len(locations.All())))

	return game.NewEngine(rules), locations, nil
}

func purgeTokens(ctx context.Context, accounts *store.Store, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := accounts.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Warn("Failed to purge expired tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Purged expired tokens", zap.Int("count", n))
			}
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	logger.Info("Shutting down")
}
