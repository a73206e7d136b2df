package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
)

// ErrNoSave is returned when a save slot is empty
var ErrNoSave = errors.New("no saved game")

const saveProperty = "farm.json"

// Ensure LocalSaveStore satisfies the interfaces.SaveStore interface
var _ interfaces.SaveStore = (*LocalSaveStore)(nil)

// localSave is the on-disk envelope of a slot
type localSave struct {
	SavedAt time.Time       `json:"savedAt"`
	State   types.GameState `json:"gameState"`
}

// LocalSaveStore keeps games in per-user data directories through gdata.
// Each slot name is a gdata object holding one JSON property.
type LocalSaveStore struct {
	manager   *gdata.Manager
	stateLock sync.RWMutex
	now       func() time.Time
}

// NewLocalSaveStore opens the data directory of an application
func NewLocalSaveStore(appName string) (*LocalSaveStore, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open save directory: %w", err)
	}
	return &LocalSaveStore{manager: manager, now: time.Now}, nil
}

// SaveGame writes the state into a slot, replacing any previous save
func (s *LocalSaveStore) SaveGame(_ context.Context, slot string, state types.GameState) error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	data, err := json.MarshalIndent(localSave{SavedAt: s.now().UTC(), State: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := s.manager.SaveObjectProp(slot, saveProperty, data); err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}

	return nil
}

// LoadGame reads a slot. An empty slot yields ErrNoSave.
func (s *LocalSaveStore) LoadGame(_ context.Context, slot string) (types.GameState, time.Time, error) {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	if !s.manager.ObjectPropExists(slot, saveProperty) {
		return types.GameState{}, time.Time{}, ErrNoSave
	}

	data, err := s.manager.LoadObjectProp(slot, saveProperty)
	if err != nil {
		return types.GameState{}, time.Time{}, fmt.Errorf("failed to read game state: %w", err)
	}

	var save localSave
	if err := json.Unmarshal(data, &save); err != nil {
		return types.GameState{}, time.Time{}, fmt.Errorf("failed to parse game state: %w", err)
	}
	if save.State.Farm.Crops == nil {
		save.State.Farm.Crops = []types.Crop{}
	}

	return save.State, save.SavedAt, nil
}
