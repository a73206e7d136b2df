package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Weather provider configuration
	Weather WeatherConfig `json:"weather"`

	// Account configuration
	Auth AuthConfig `json:"auth"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3)
	Driver string `json:"driver"`

	// Database connection string
	DSN string `json:"dsn"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Seconds of wall time per simulated day
	TickInterval int `json:"tick_interval"`

	// Seconds between autosaves of account-owned sessions
	AutosaveInterval int `json:"autosave_interval"`

	// Seconds between weather refreshes
	WeatherRefreshInterval int `json:"weather_refresh_interval"`

	// YAML tuning table; compiled-in defaults when empty
	RulesPath string `json:"rules_path"`

	// YAML location presets; compiled-in defaults when empty
	LocationsPath string `json:"locations_path"`

	// Upper bound on concurrently running sessions
	MaxSessions int `json:"max_sessions"`
}

// WeatherConfig holds weather provider configuration
type WeatherConfig struct {
	// Provider name (meteomatics, simulated)
	Provider string `json:"provider"`

	// API base URL
	BaseURL string `json:"base_url"`

	// API credentials
	Username string `json:"username"`
	Password string `json:"password"`

	// Request timeout in seconds
	Timeout int `json:"timeout"`

	// Seed of the simulated provider
	Seed int64 `json:"seed"`
}

// AuthConfig holds account specific configuration
type AuthConfig struct {
	// Token lifetime in hours
	TokenTTL int `json:"token_ttl"`

	// bcrypt work factor
	BcryptCost int `json:"bcrypt_cost"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// Externally reachable base URL, used in session QR codes
	PublicURL string `json:"public_url"`
}

// TickDuration returns the tick interval as a duration
func (g GameConfig) TickDuration() time.Duration {
	return time.Duration(g.TickInterval) * time.Second
}

// AutosaveDuration returns the autosave interval as a duration
func (g GameConfig) AutosaveDuration() time.Duration {
	return time.Duration(g.AutosaveInterval) * time.Second
}

// WeatherRefreshDuration returns the weather refresh interval as a duration
func (g GameConfig) WeatherRefreshDuration() time.Duration {
	return time.Duration(g.WeatherRefreshInterval) * time.Second
}

// TimeoutDuration returns the request timeout as a duration
func (w WeatherConfig) TimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// TokenTTLDuration returns the token lifetime as a duration
func (a AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Hour
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./climate-farm.db",
		},
		Game: GameConfig{
			TickInterval:           30,
			AutosaveInterval:       30,
			WeatherRefreshInterval: 600,
			RulesPath:              "rules.yaml",
			LocationsPath:          "locations.yaml",
			MaxSessions:            100,
		},
		Weather: WeatherConfig{
			Provider: "simulated",
			BaseURL:  "https://api.meteomatics.com",
			Timeout:  10,
			Seed:     42,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * 7,
			BcryptCost: 10,
		},
		Server: ServerConfig{
			Port:      "8080",
			LogLevel:  "info",
			PublicURL: "http://localhost:8080",
		},
	}
}

// Validate checks values that would otherwise fail at runtime
func (c Config) Validate() error {
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive, got %d", c.Game.TickInterval)
	}
	if c.Game.AutosaveInterval <= 0 {
		return fmt.Errorf("game.autosave_interval must be positive, got %d", c.Game.AutosaveInterval)
	}
	if c.Game.WeatherRefreshInterval <= 0 {
		return fmt.Errorf("game.weather_refresh_interval must be positive, got %d", c.Game.WeatherRefreshInterval)
	}
	switch c.Weather.Provider {
	case "meteomatics", "simulated":
	default:
		return fmt.Errorf("unknown weather provider %q", c.Weather.Provider)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %d", c.Auth.TokenTTL)
	}
	return nil
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, nil
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, config.Validate()
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
