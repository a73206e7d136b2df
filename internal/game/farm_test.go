package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/climate-farm/internal/types"
)

func TestNewGameState(t *testing.T) {
	engine := newTestEngine()
	location := testLocation(types.ClimateMediterranean)

	state := engine.NewGameState(location)

	_, err := uuid.Parse(state.Farm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Valley Restoration Project", state.Farm.Name)
	assert.Equal(t, location, state.Farm.Location)
	assert.Empty(t, state.Farm.Crops)
	assert.Equal(t, types.Resources{Money: 500, Water: 1000, Fertilizer: 50, Seeds: 5, Feed: 100}, state.Farm.Resources)
	assert.Equal(t, 0, state.Farm.Score)
	assert.Equal(t, 0.0, state.Farm.EnvironmentalScore)
	assert.Equal(t, 6, state.Farm.MaxSlots)
	assert.Equal(t, 1, state.Day)
	assert.Equal(t, types.StatusPlaying, state.Status)
	assert.Equal(t, 20.0, state.Weather.Temperature)
	assert.Equal(t, 60.0, state.Weather.Humidity)

	other := engine.NewGameState(location)
	assert.NotEqual(t, state.Farm.ID, other.Farm.ID)
}

func TestFindCrop(t *testing.T) {
	farm := types.Farm{Crops: []types.Crop{
		newCrop(4, types.Corn, 100, 50, 30, 0),
		newCrop(1, types.Rice, 100, 50, 30, 0),
	}}

	crop, index, ok := FindCrop(farm, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, index)
	assert.Equal(t, types.Rice, crop.Type)

	_, index, ok = FindCrop(farm, 2)
	assert.False(t, ok)
	assert.Equal(t, -1, index)
}

func TestNextFreeSlot(t *testing.T) {
	farm := types.Farm{Crops: []types.Crop{
		newCrop(0, types.Corn, 100, 50, 30, 0),
		newCrop(1, types.Corn, 100, 50, 30, 0),
		newCrop(3, types.Corn, 100, 50, 30, 0),
	}}

	slot, ok := NextFreeSlot(farm, 6)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)

	_, ok = NextFreeSlot(farm, 2)
	assert.False(t, ok)

	slot, ok = NextFreeSlot(types.Farm{}, 1)
	assert.True(t, ok)
	assert.Equal(t, 0, slot)
}

func TestCloneIsDeep(t *testing.T) {
	state := newTestState(types.ClimateTemperate, newCrop(0, types.Corn, 100, 50, 30, 0))

	clone := state.Clone()
	clone.Farm.Crops[0].Health = 1

	assert.Equal(t, 100.0, state.Farm.Crops[0].Health)
}
