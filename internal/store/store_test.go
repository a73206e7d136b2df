package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/climate-farm/config"
	"github.com/user/climate-farm/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return New(db, Options{TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
}

func register(t *testing.T, s *Store, username string) (User, string) {
	t.Helper()
	user, token, err := s.Register(context.Background(), username, username+"@example.com", "secret-"+username)
	require.NoError(t, err)
	return user, token
}

func savedState(score, day, money int) types.GameState {
	return types.GameState{
		Farm: types.Farm{
			ID:        "farm-1",
			Name:      "Test Farm",
			Location:  types.Location{ID: "iowa", Climate: types.ClimateTemperate},
			Crops:     []types.Crop{{Slot: 0, Type: types.Corn, Health: 80, WaterLevel: 60, GrowthStage: 10, ExpectedYield: 150}},
			Resources: types.Resources{Money: money, Water: 90, Fertilizer: 40, Seeds: 8},
			Score:     score,
			MaxSlots:  20,
		},
		Day:    day,
		Status: types.StatusPlaying,
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "farm.db")})
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("leaderboard"))
	assert.True(t, db.Migrator().HasTable(&User{}))

	_, err = Open(config.DatabaseConfig{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user, token, err := s.Register(ctx, " alice ", "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NotEmpty(t, token)

	// A fresh account starts on the leaderboard with zero
	ranked, err := s.Rank(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ranked.HighScore)
	assert.Equal(t, "alice", ranked.Username)

	// Duplicates
	_, _, err = s.Register(ctx, "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, ErrUserExists)
	_, _, err = s.Register(ctx, "alice2", "alice@example.com", "pw")
	assert.ErrorIs(t, err, ErrUserExists)

	// Bad input
	_, _, err = s.Register(ctx, "", "x@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = s.Register(ctx, "bob", "not-an-email", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Login
	loggedIn, token2, err := s.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotNil(t, loggedIn.LastLogin)
	assert.NotEqual(t, token, token2)

	_, _, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.Login(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, token := register(t, s, "carol")

	got, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.Authenticate(ctx, "made-up")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expire the token by moving the clock past the TTL
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	purged, err := s.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}

func TestSaveAndLoadGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, _ := register(t, s, "dave")

	// Test case 1: nothing saved yet
	_, _, err := s.LoadGame(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Test case 2: round trip
	state := savedState(120, 14, 640)
	require.NoError(t, s.SaveGame(ctx, user.ID, state))

	loaded, savedAt, err := s.LoadGame(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
	assert.False(t, savedAt.IsZero())

	// Test case 3: a later save replaces the row, bests only rise
	require.NoError(t, s.SaveGame(ctx, user.ID, savedState(90, 3, 100)))

	loaded, _, err = s.LoadGame(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Day)

	var saves int64
	require.NoError(t, s.db.Model(&GameSave{}).Where("user_id = ?", user.ID).Count(&saves).Error)
	assert.Equal(t, int64(1), saves)

	ranked, err := s.Rank(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, ranked.HighScore)
	assert.Equal(t, 14, ranked.BestDay)

	// Test case 4: unknown account
	err = s.SaveGame(ctx, "ghost", state)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordHarvest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, _ := register(t, s, "erin")

	require.NoError(t, s.RecordHarvest(ctx, user.ID))
	require.NoError(t, s.RecordHarvest(ctx, user.ID))

	ranked, err := s.Rank(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ranked.TotalHarvests)

	assert.ErrorIs(t, s.RecordHarvest(ctx, "ghost"), ErrNotFound)
}

func TestLeaderboard(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	scores := map[string]int{"ann": 300, "ben": 500, "cal": 300, "dot": 100}
	ids := make(map[string]string)
	for name, score := range scores {
		user, _ := register(t, s, name)
		ids[name] = user.ID
		require.NoError(t, s.SaveGame(ctx, user.ID, savedState(score, 5, 0)))
	}

	top, err := s.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 4)

	names := make([]string, len(top))
	for i, e := range top {
		names[i] = e.Username
	}
	assert.Equal(t, []string{"ben", "ann", "cal", "dot"}, names)

	top, err = s.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	// Dense ranking: ties share a position
	tests := []struct {
		name string
		rank int
	}{
		{"ben", 1},
		{"ann", 2},
		{"cal", 2},
		{"dot", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked, err := s.Rank(ctx, ids[tt.name])
			require.NoError(t, err)
			assert.Equal(t, tt.rank, ranked.Rank)
		})
	}

	_, err = s.Rank(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
