package game

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/climate-farm/internal/types"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultRules())
}

func testLocation(climate types.Climate) types.Location {
	return types.Location{
		ID:         "test",
		Name:       "Test Valley",
		Country:    "Nowhere",
		Point:      orb.Point{-46.6, -23.5},
		Climate:    climate,
		Difficulty: "medium",
	}
}

func newCrop(slot int, cropType types.CropType, health, water, fertilizer, growth float64) types.Crop {
	return types.Crop{
		Slot:               slot,
		Type:               cropType,
		PlantedDay:         1,
		Health:             health,
		WaterLevel:         water,
		FertilizationLevel: fertilizer,
		GrowthStage:        growth,
		ExpectedYield:      DefaultCatalog()[cropType].BaseValue,
	}
}

func newTestState(climate types.Climate, crops ...types.Crop) types.GameState {
	state := newTestEngine().NewGameState(testLocation(climate))
	state.Farm.Crops = append(state.Farm.Crops, crops...)
	return state
}

func TestTickKeepsLevelsInRange(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateArid,
		newCrop(0, types.Wheat, 100, 100, 100, 99.5),
		newCrop(1, types.Cactus, 60, 5, 5, 10),
	)
	state.Weather.Temperature = 38
	state.Weather.Precipitation = 50

	for i := 0; i < 20; i++ {
		before := state
		state = engine.Tick(state)

		for _, c := range state.Farm.Crops {
			assert.GreaterOrEqual(t, c.Health, 0.0)
			assert.LessOrEqual(t, c.Health, 100.0)
			assert.GreaterOrEqual(t, c.WaterLevel, 0.0)
			assert.LessOrEqual(t, c.WaterLevel, 100.0)
			assert.GreaterOrEqual(t, c.FertilizationLevel, 0.0)
			assert.LessOrEqual(t, c.FertilizationLevel, 100.0)
			assert.LessOrEqual(t, c.GrowthStage, 100.0)

			prev, _, ok := FindCrop(before.Farm, c.Slot)
			require.True(t, ok)
			assert.GreaterOrEqual(t, c.GrowthStage, prev.GrowthStage)
		}
	}
}

func TestTickRemovesDeadCrops(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate,
		newCrop(0, types.Wheat, 2, 0, 0, 10),
		newCrop(1, types.Corn, 100, 80, 80, 10),
	)

	next := engine.Tick(state)

	require.Len(t, next.Farm.Crops, 1)
	assert.Equal(t, 1, next.Farm.Crops[0].Slot)
	_, _, found := FindCrop(next.Farm, 0)
	assert.False(t, found)
}

func TestTickDoesNotMutateInput(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate, newCrop(0, types.Rice, 90, 60, 60, 20))
	original := state.Clone()

	_ = engine.Tick(state)

	assert.Equal(t, original, state)
}

func TestEnvironmentalScoreIsRecomputed(t *testing.T) {
	engine := newTestEngine()
	crops := []types.Crop{
		newCrop(0, types.Bamboo, 100, 100, 100, 100),
		newCrop(1, types.Palm, 50, 100, 100, 40),
	}

	first := engine.EnvironmentalScore(crops)
	second := engine.EnvironmentalScore(crops)

	// 10*1*1 + 9*0.5*0.4 = 11.8 over a ceiling of 120
	assert.InDelta(t, 11.8/120*100, first, 1e-9)
	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, engine.EnvironmentalScore(nil))
}

func TestEnvironmentalScoreCapsAtHundred(t *testing.T) {
	engine := newTestEngine()
	crops := make([]types.Crop, 0, 24)
	for slot := 0; slot < 24; slot++ {
		crops = append(crops, newCrop(slot, types.Bamboo, 100, 100, 100, 100))
	}

	assert.Equal(t, 100.0, engine.EnvironmentalScore(crops))
}

func TestScoreNeverDecreases(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateCold,
		newCrop(0, types.Potato, 100, 70, 60, 60),
		newCrop(1, types.Tomato, 40, 20, 10, 0),
	)
	state.Weather.Temperature = 2

	for i := 0; i < 60; i++ {
		next := engine.Tick(state)
		assert.GreaterOrEqual(t, next.Farm.Score, state.Farm.Score)
		state = next
	}
}

func TestTickScoring(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate,
		newCrop(0, types.Corn, 100, 100, 100, 60), // thriving
		newCrop(1, types.Corn, 70, 100, 100, 10),  // healthy
		newCrop(2, types.Corn, 40, 100, 100, 10),  // neither
	)

	next := engine.Tick(state)

	assert.Equal(t, 3+1, next.Farm.Score)
}

func TestDryTicksDrainWaterThenPenalize(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate, newCrop(0, types.Wheat, 100, 50, 30, 0))
	state.Weather.Precipitation = 0
	state.Weather.Temperature = 20
	state.Weather.Humidity = 60

	for k := 1; k <= 30; k++ {
		prev := state.Farm.Crops[0]
		state = engine.Tick(state)
		require.Len(t, state.Farm.Crops, 1)
		crop := state.Farm.Crops[0]

		expected := 50 - 2*float64(k)
		if expected < 0 {
			expected = 0
		}
		assert.InDelta(t, expected, crop.WaterLevel, 1e-9, "water on day %d", k)

		if prev.WaterLevel-2 < 20 {
			assert.LessOrEqual(t, crop.Health, prev.Health-3, "health on day %d", k)
		}
	}

	// 5 days at 0.5, 10 days at 1.5, 15 days at 3.5
	assert.InDelta(t, 30.0, state.Farm.Crops[0].Health, 1e-9)
}

func TestTickClimateExposure(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		climate  types.Climate
		crop     types.CropType
		temp     float64
		humidity float64
		want     float64
	}{
		{name: "mild weather", climate: types.ClimateTemperate, crop: types.Wheat, temp: 20, humidity: 60, want: 100},
		{name: "arid heat", climate: types.ClimateArid, crop: types.Wheat, temp: 32, humidity: 20, want: 97},
		{name: "arid heat and extreme", climate: types.ClimateArid, crop: types.Wheat, temp: 36, humidity: 20, want: 95.8},
		{name: "extreme heat without climate", climate: types.ClimateTemperate, crop: types.Corn, temp: 40, humidity: 50, want: 99.2},
		{name: "cold snap", climate: types.ClimateCold, crop: types.Corn, temp: 8, humidity: 50, want: 97.2},
		{name: "frost in cold climate", climate: types.ClimateCold, crop: types.Palm, temp: 0, humidity: 50, want: 94.6},
		{name: "tropical humidity", climate: types.ClimateTropical, crop: types.Cactus, temp: 25, humidity: 90, want: 98.2},
		{name: "resistant crop", climate: types.ClimateTropical, crop: types.Rice, temp: 25, humidity: 90, want: 99.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestState(tt.climate, newCrop(0, tt.crop, 100, 100, 100, 0))
			state.Weather.Temperature = tt.temp
			state.Weather.Humidity = tt.humidity

			next := engine.Tick(state)

			require.Len(t, next.Farm.Crops, 1)
			assert.InDelta(t, tt.want, next.Farm.Crops[0].Health, 1e-9)
		})
	}
}

func TestTickRainRefillsWater(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate, newCrop(0, types.Rice, 100, 50, 50, 0))
	state.Weather.Precipitation = 5

	next := engine.Tick(state)

	assert.InDelta(t, 63.0, next.Farm.Crops[0].WaterLevel, 1e-9)
}

func TestTickGrowthLadder(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name string
		crop types.Crop
		want float64
	}{
		{name: "best tier", crop: newCrop(0, types.Wheat, 100, 80, 80, 0), want: 3},
		{name: "middle tier", crop: newCrop(0, types.Wheat, 60, 40, 25, 0), want: 1.5},
		{name: "minimal tier", crop: newCrop(0, types.Wheat, 40, 10, 10, 0), want: 0.75},
		{name: "stalled", crop: newCrop(0, types.Wheat, 30, 100, 100, 0), want: 0},
		{name: "slow crop", crop: newCrop(0, types.Palm, 100, 80, 80, 0), want: 1},
		{name: "capped", crop: newCrop(0, types.Bamboo, 100, 80, 80, 99), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := engine.Tick(newTestState(types.ClimateTemperate, tt.crop))
			require.Len(t, next.Farm.Crops, 1)
			assert.InDelta(t, tt.want, next.Farm.Crops[0].GrowthStage, 1e-9)
		})
	}
}

func TestTickIncome(t *testing.T) {
	engine := newTestEngine()

	// Test case 1: passive income only on day 1
	state := newTestState(types.ClimateTemperate,
		newCrop(0, types.Wheat, 100, 100, 100, 0),
		newCrop(1, types.Wheat, 55, 100, 100, 0),
	)
	next := engine.Tick(state)
	assert.Equal(t, state.Farm.Resources.Money+5, next.Farm.Resources.Money)
	assert.Equal(t, 2, next.Day)

	// Test case 2: daily income steps up every five days
	state.Day = 12
	next = engine.Tick(state)
	assert.Equal(t, state.Farm.Resources.Money+5+20, next.Farm.Resources.Money)

	// Test case 3: environmental bonus
	bamboo := make([]types.Crop, 0, 6)
	for slot := 0; slot < 6; slot++ {
		bamboo = append(bamboo, newCrop(slot, types.Bamboo, 100, 100, 100, 100))
	}
	state = newTestState(types.ClimateTemperate, bamboo...)
	next = engine.Tick(state)
	assert.InDelta(t, 50.0, next.Farm.EnvironmentalScore, 1e-9)
	assert.Equal(t, state.Farm.Resources.Money+6*5+25, next.Farm.Resources.Money)
}

func TestTickWinIsSticky(t *testing.T) {
	engine := newTestEngine()
	crops := make([]types.Crop, 0, 12)
	for slot := 0; slot < 12; slot++ {
		crops = append(crops, newCrop(slot, types.Bamboo, 100, 100, 100, 100))
	}
	state := newTestState(types.ClimateTemperate, crops...)
	state.Day = 7

	won := engine.Tick(state)
	require.Equal(t, types.StatusWon, won.Status)
	assert.Equal(t, 100.0, won.Farm.EnvironmentalScore)
	assert.Equal(t, 8, won.Day)

	again := engine.Tick(won)
	assert.Equal(t, won, again)

	_, _, err := engine.Apply(won, Action{Type: ActionBuy, Resource: ResourceWater})
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestTickLoss(t *testing.T) {
	engine := newTestEngine()

	// Test case 1: bankrupt with no crops
	state := newTestState(types.ClimateTemperate)
	state.Farm.Resources.Money = -10
	lost := engine.Tick(state)
	assert.Equal(t, types.StatusLost, lost.Status)
	assert.Equal(t, lost, engine.Tick(lost))

	// Test case 2: stagnation within the grace period keeps playing
	state = newTestState(types.ClimateTemperate)
	state.Farm.Resources.Money = 50
	state.Day = 10
	assert.Equal(t, types.StatusPlaying, engine.Tick(state).Status)

	// Test case 3: stagnation after the grace period
	state.Day = 11
	assert.Equal(t, types.StatusLost, engine.Tick(state).Status)

	// Test case 4: a live crop keeps the game going
	state = newTestState(types.ClimateTemperate, newCrop(0, types.Corn, 100, 100, 100, 0))
	state.Farm.Resources.Money = -10
	state.Day = 40
	assert.Equal(t, types.StatusPlaying, engine.Tick(state).Status)
}

func TestTickUnknownCropType(t *testing.T) {
	engine := newTestEngine()
	state := newTestState(types.ClimateTemperate, newCrop(0, types.CropType("mango"), 100, 100, 100, 50))

	next := engine.Tick(state)

	require.Len(t, next.Farm.Crops, 1)
	assert.Equal(t, 0.0, next.Farm.EnvironmentalScore)
}
