package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/user/climate-farm/internal/types"
)

// Engine applies the simulation rules. It holds no game state; every
// operation takes a state and returns the next one.
type Engine struct {
	rules Rules
}

// NewEngine creates an engine for a rules table
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the table the engine runs on
func (e *Engine) Rules() Rules {
	return e.rules
}

// NewGameState creates a fresh game on the given location
func (e *Engine) NewGameState(location types.Location) types.GameState {
	start := e.rules.Start
	weather := start.Weather
	return types.GameState{
		Farm: types.Farm{
			ID:       uuid.New().String(),
			Name:     fmt.Sprintf("%s Restoration Project", location.Name),
			Location: location,
			Crops:    []types.Crop{},
			Resources: types.Resources{
				Money:      start.Money,
				Water:      start.Water,
				Fertilizer: start.Fertilizer,
				Seeds:      start.Seeds,
				Feed:       start.Feed,
			},
			MaxSlots: start.MaxSlots,
		},
		Day:     1,
		Weather: weather,
		Status:  types.StatusPlaying,
	}
}

// FindCrop returns the crop planted in a slot and its index in the crop list
func FindCrop(farm types.Farm, slot int) (types.Crop, int, bool) {
	for i, c := range farm.Crops {
		if c.Slot == slot {
			return c, i, true
		}
	}
	return types.Crop{}, -1, false
}

// NextFreeSlot returns the lowest slot in [0, maxSlots) without a live crop
func NextFreeSlot(farm types.Farm, maxSlots int) (int, bool) {
	used := make(map[int]bool, len(farm.Crops))
	for _, c := range farm.Crops {
		used[c.Slot] = true
	}
	for slot := 0; slot < maxSlots; slot++ {
		if !used[slot] {
			return slot, true
		}
	}
	return 0, false
}
