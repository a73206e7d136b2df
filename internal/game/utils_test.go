package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/climate-farm/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	loader := NewDataLoader(dir)

	// Test case 1: no file means defaults
	rules, err := loader.LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	// Test case 2: partial override
	writeFile(t, dir, "rules.yaml", `
decay:
  water: 3
shop:
  slotCap: 30
crops:
  agave:
    name: Agave
    environmentalContribution: 4
    resistance: {arid: 0.9, cold: 0.3, heat: 0.9, humidity: 0.2}
    growthSpeed: 1
    baseValue: 120
`)
	rules, err = loader.LoadRules("rules.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3.0, rules.Decay.Water)
	assert.Equal(t, 0.5, rules.Decay.Fertilizer)
	assert.Equal(t, 30, rules.Shop.SlotCap)
	assert.Len(t, rules.Crops, 10)
	assert.Equal(t, 0.9, rules.Crops["agave"].Resistance.Arid)
	assert.Equal(t, 20.0, rules.Start.Weather.Temperature)

	// Test case 3: invalid values
	writeFile(t, dir, "bad.yaml", "income:\n  dailyPeriod: 0\n")
	_, err = loader.LoadRules("bad.yaml")
	assert.Error(t, err)

	// Test case 4: missing file
	_, err = loader.LoadRules("missing.yaml")
	assert.Error(t, err)
}

func TestLoadLocations(t *testing.T) {
	dir := t.TempDir()
	loader := NewDataLoader(dir)

	catalog, err := loader.LoadLocations("")
	require.NoError(t, err)
	assert.Len(t, catalog.All(), len(DefaultLocations()))

	writeFile(t, dir, "locations.yaml", `
locations:
  - id: nile
    name: Nile Valley
    country: Egypt
    point: [31.2357, 30.0444]
    climate: arid
    difficulty: medium
    description: Irrigated desert strip
`)
	catalog, err = loader.LoadLocations(filepath.Join(dir, "locations.yaml"))
	require.NoError(t, err)

	nile, err := catalog.Find("nile")
	require.NoError(t, err)
	assert.Equal(t, "Egypt", nile.Country)
	assert.Equal(t, 30.0444, nile.Lat())
	assert.Equal(t, 31.2357, nile.Lon())
	assert.Equal(t, types.ClimateArid, nile.Climate)

	_, err = catalog.Find("iowa")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestNewLocationCatalogValidation(t *testing.T) {
	valid := types.Location{ID: "a", Name: "A", Point: orb.Point{0, 0}, Climate: types.ClimateCold}

	tests := []struct {
		name      string
		locations []types.Location
	}{
		{"empty", nil},
		{"missing id", []types.Location{{Name: "A", Climate: types.ClimateCold}}},
		{"duplicate id", []types.Location{valid, valid}},
		{"bad latitude", []types.Location{{ID: "b", Point: orb.Point{0, 95}, Climate: types.ClimateCold}}},
		{"bad climate", []types.Location{{ID: "c", Point: orb.Point{0, 0}, Climate: "lunar"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocationCatalog(tt.locations)
			assert.Error(t, err)
		})
	}
}

func TestNearestLocation(t *testing.T) {
	catalog, err := NewLocationCatalog(DefaultLocations())
	require.NoError(t, err)

	// Paris is closest to Normandy
	location, distance := catalog.Nearest(48.8566, 2.3522)
	assert.Equal(t, "normandy", location.ID)
	assert.InDelta(t, 200_000, distance, 50_000)

	// Saint-Louis, Senegal
	location, _ = catalog.Nearest(16.02, -16.49)
	assert.Equal(t, "dakar", location.ID)
}

func TestDefaultLocationsAreValid(t *testing.T) {
	catalog, err := NewLocationCatalog(DefaultLocations())
	require.NoError(t, err)

	climates := make(map[types.Climate]bool)
	for _, l := range catalog.All() {
		climates[l.Climate] = true
		assert.Contains(t, []string{"easy", "medium", "hard"}, l.Difficulty)
	}
	assert.Len(t, climates, 5)
}

func TestShippedDataMatchesDefaults(t *testing.T) {
	loader := NewDataLoader("../../assets/data")

	rules, err := loader.LoadRules("rules.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	catalog, err := loader.LoadLocations("locations.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultLocations(), catalog.All())
}
