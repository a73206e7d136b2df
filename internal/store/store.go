// Package store persists accounts, game saves and the leaderboard in SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/climate-farm/config"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidInput       = errors.New("invalid input")
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Ensure Store satisfies the session collaborators
var (
	_ interfaces.SaveStore       = (*Store)(nil)
	_ interfaces.HarvestRecorder = (*Store)(nil)
)

// Options tune account handling
type Options struct {
	TokenTTL   time.Duration
	BcryptCost int
	Logger     *zap.Logger
}

// Store is the SQLite-backed persistence layer
type Store struct {
	db         *gorm.DB
	tokenTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// Open connects to the configured database and migrates the schema
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite3", "sqlite", "":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &AuthToken{}, &GameSave{}, &LeaderboardEntry{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// New wraps a migrated database
func New(db *gorm.DB, opts Options) *Store {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		db:         db,
		tokenTTL:   opts.TokenTTL,
		bcryptCost: opts.BcryptCost,
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// Register creates an account with an empty leaderboard row and signs it in
func (s *Store) Register(ctx context.Context, username, email, password string) (User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return User{}, "", fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, "", fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{Username: username, Email: email, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := gorm.G[User](tx).Where("username = ? OR email = ?", username, email).Count(ctx, "*")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := gorm.G[User](tx).Create(ctx, &user); err != nil {
			return err
		}
		entry := LeaderboardEntry{UserID: user.ID, Username: user.Username, UpdatedAt: s.now()}
		return gorm.G[LeaderboardEntry](tx).Create(ctx, &entry)
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return User{}, "", err
		}
		return User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return User{}, "", err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Login checks a password and issues a fresh token
func (s *Store) Login(ctx context.Context, username, password string) (User, string, error) {
	user, err := gorm.G[User](s.db).Where("username = ?", strings.TrimSpace(username)).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	now := s.now()
	if _, err := gorm.G[User](s.db).Where("id = ?", user.ID).Update(ctx, "last_login", now); err != nil {
		return User{}, "", fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

func (s *Store) issueToken(ctx context.Context, userID string) (string, error) {
	now := s.now()
	token := AuthToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := gorm.G[AuthToken](s.db).Create(ctx, &token); err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token.Token, nil
}

// Authenticate resolves a bearer token to its account
func (s *Store) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrInvalidToken
	}

	t, err := gorm.G[AuthToken](s.db).Where("token = ? AND expires_at > ?", token, s.now()).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidToken
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to find token: %w", err)
	}

	user, err := gorm.G[User](s.db).Where("id = ?", t.UserID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidToken
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// PurgeExpiredTokens deletes tokens past their expiry
func (s *Store) PurgeExpiredTokens(ctx context.Context) (int, error) {
	n, err := gorm.G[AuthToken](s.db).Where("expires_at <= ?", s.now()).Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return n, nil
}

// SaveGame replaces the account's save and raises its leaderboard bests
func (s *Store) SaveGame(ctx context.Context, userID string, state types.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}
	summary := state.Summarize()
	now := s.now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := gorm.G[User](tx).Where("id = ?", userID).First(ctx)
		if err != nil {
			return err
		}

		save, err := gorm.G[GameSave](tx).Where("user_id = ?", userID).First(ctx)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			save = GameSave{UserID: userID, CreatedAt: now}
		case err != nil:
			return err
		}
		save.GameState = string(data)
		save.Score = summary.Score
		save.Day = summary.Day
		save.Money = summary.Money
		save.UpdatedAt = now
		if err := tx.Save(&save).Error; err != nil {
			return err
		}

		entry, err := gorm.G[LeaderboardEntry](tx).Where("user_id = ?", userID).First(ctx)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = LeaderboardEntry{UserID: userID, Username: user.Username}
		case err != nil:
			return err
		}
		entry.HighScore = max(entry.HighScore, summary.Score)
		entry.BestDay = max(entry.BestDay, summary.Day)
		entry.UpdatedAt = now
		return tx.Save(&entry).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// LoadGame returns the account's latest save
func (s *Store) LoadGame(ctx context.Context, userID string) (types.GameState, time.Time, error) {
	save, err := gorm.G[GameSave](s.db).Where("user_id = ?", userID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.GameState{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return types.GameState{}, time.Time{}, fmt.Errorf("failed to load game: %w", err)
	}

	var state types.GameState
	if err := json.Unmarshal([]byte(save.GameState), &state); err != nil {
		return types.GameState{}, time.Time{}, fmt.Errorf("failed to parse saved game: %w", err)
	}
	if state.Farm.Crops == nil {
		state.Farm.Crops = []types.Crop{}
	}
	return state, save.UpdatedAt, nil
}

// RecordHarvest bumps the account's harvest counter
func (s *Store) RecordHarvest(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&LeaderboardEntry{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_harvests", gorm.Expr("total_harvests + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to record harvest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Top returns the best entries by high score. The limit is clamped to
// [1, MaxLeaderboardLimit] and defaults to DefaultLeaderboardLimit.
func (s *Store) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	limit = min(limit, MaxLeaderboardLimit)

	entries, err := gorm.G[LeaderboardEntry](s.db).
		Order("high_score DESC").
		Order("username ASC").
		Limit(limit).
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return entries, nil
}

// Rank returns the account's dense rank: accounts sharing a high score
// share a position and the next score takes the following one.
func (s *Store) Rank(ctx context.Context, userID string) (RankedEntry, error) {
	entry, err := gorm.G[LeaderboardEntry](s.db).Where("user_id = ?", userID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RankedEntry{}, ErrNotFound
	}
	if err != nil {
		return RankedEntry{}, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	var higher int64
	err = s.db.WithContext(ctx).
		Raw("SELECT COUNT(DISTINCT high_score) FROM leaderboard WHERE high_score > ?", entry.HighScore).
		Scan(&higher).Error
	if err != nil {
		return RankedEntry{}, fmt.Errorf("failed to compute rank: %w", err)
	}

	return RankedEntry{Rank: int(higher) + 1, LeaderboardEntry: entry}, nil
}
