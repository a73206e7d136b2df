package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/climate-farm/internal/types"
)

// newTestLocalStore opens a throwaway gdata directory
func newTestLocalStore(t *testing.T) *LocalSaveStore {
	appName := fmt.Sprintf("climate_farm_test_%d", time.Now().UnixNano())
	store, err := NewLocalSaveStore(appName)
	if err != nil {
		t.Skipf("Cannot open gdata storage: %v", err)
	}

	t.Cleanup(func() {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			os.RemoveAll(filepath.Join(homeDir, ".local", "share", appName))
		}
	})
	return store
}

func TestLocalSaveStore(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	// Test case 1: empty slot
	_, _, err := store.LoadGame(ctx, "default")
	assert.ErrorIs(t, err, ErrNoSave)

	// Test case 2: save and load
	state := newTestState(types.ClimateArid, newCrop(1, types.Cactus, 90, 40, 20, 33))
	state.Day = 9
	require.NoError(t, store.SaveGame(ctx, "default", state))

	loaded, savedAt, err := store.LoadGame(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
	assert.False(t, savedAt.IsZero())

	// Test case 3: saves replace each other and slots are independent
	state.Day = 10
	require.NoError(t, store.SaveGame(ctx, "default", state))
	loaded, _, err = store.LoadGame(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Day)

	_, _, err = store.LoadGame(ctx, "other")
	assert.ErrorIs(t, err, ErrNoSave)
}
