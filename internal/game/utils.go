package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/user/climate-farm/internal/types"
	"gopkg.in/yaml.v3"
)

// DataLoader handles loading game data from files
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a new data loader. Relative paths resolve against basePath.
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

func (dl *DataLoader) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dl.basePath, path)
}

// LoadRules loads the tuning table. Keys missing from the file keep their
// default value; crop entries are merged into the default catalog.
func (dl *DataLoader) LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(dl.resolve(path))
	if err != nil {
		return rules, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules data: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("invalid rules: %w", err)
	}

	return rules, nil
}

type locationsFile struct {
	Locations []types.Location `yaml:"locations"`
}

// LoadLocations loads the farm location presets
func (dl *DataLoader) LoadLocations(path string) (*LocationCatalog, error) {
	if path == "" {
		return NewLocationCatalog(DefaultLocations())
	}

	data, err := os.ReadFile(dl.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file: %w", err)
	}

	var file locationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse locations data: %w", err)
	}

	return NewLocationCatalog(file.Locations)
}

// ErrUnknownLocation is returned for a location id missing from the catalog
var ErrUnknownLocation = errors.New("unknown location")

// LocationCatalog is the read-only set of farm locations
type LocationCatalog struct {
	list []types.Location
	byID map[string]types.Location
}

// NewLocationCatalog validates and indexes a list of locations
func NewLocationCatalog(locations []types.Location) (*LocationCatalog, error) {
	if len(locations) == 0 {
		return nil, errors.New("location catalog cannot be empty")
	}

	c := &LocationCatalog{
		list: make([]types.Location, 0, len(locations)),
		byID: make(map[string]types.Location, len(locations)),
	}
	for _, l := range locations {
		if l.ID == "" {
			return nil, fmt.Errorf("location %q has no id", l.Name)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", l.ID)
		}
		if l.Lat() < -90 || l.Lat() > 90 || l.Lon() < -180 || l.Lon() > 180 {
			return nil, fmt.Errorf("location %s: coordinate %v out of range", l.ID, l.Point)
		}
		switch l.Climate {
		case types.ClimateArid, types.ClimateCold, types.ClimateTropical, types.ClimateTemperate, types.ClimateMediterranean:
		default:
			return nil, fmt.Errorf("location %s: unknown climate %q", l.ID, l.Climate)
		}
		c.list = append(c.list, l)
		c.byID[l.ID] = l
	}
	return c, nil
}

// All returns the locations in catalog order
func (c *LocationCatalog) All() []types.Location {
	out := make([]types.Location, len(c.list))
	copy(out, c.list)
	return out
}

// Find looks up a location by id
func (c *LocationCatalog) Find(id string) (types.Location, error) {
	l, ok := c.byID[id]
	if !ok {
		return types.Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, id)
	}
	return l, nil
}

// Nearest returns the preset closest to a coordinate and its distance in meters
func (c *LocationCatalog) Nearest(lat, lon float64) (types.Location, float64) {
	target := orb.Point{lon, lat}
	best := c.list[0]
	bestDist := geo.Distance(target, best.Point)
	for _, l := range c.list[1:] {
		if d := geo.Distance(target, l.Point); d < bestDist {
			best, bestDist = l, d
		}
	}
	return best, bestDist
}

// DefaultLocations returns the built-in presets
func DefaultLocations() []types.Location {
	return []types.Location{
		{
			ID: "dakar", Name: "Dakar", Country: "Senegal",
			Point: orb.Point{-17.4677, 14.7167}, Climate: types.ClimateArid, Difficulty: "hard",
			Description: "Sahel coast where the desert meets the Atlantic",
		},
		{
			ID: "atacama", Name: "Atacama", Country: "Chile",
			Point: orb.Point{-69.25, -24.5}, Climate: types.ClimateArid, Difficulty: "hard",
			Description: "One of the driest places on Earth",
		},
		{
			ID: "manaus", Name: "Manaus", Country: "Brazil",
			Point: orb.Point{-60.0217, -3.1190}, Climate: types.ClimateTropical, Difficulty: "medium",
			Description: "Cleared rainforest edge along the Amazon",
		},
		{
			ID: "mekong", Name: "Mekong Delta", Country: "Vietnam",
			Point: orb.Point{105.7851, 10.0452}, Climate: types.ClimateTropical, Difficulty: "medium",
			Description: "Humid river delta with heavy monsoon rains",
		},
		{
			ID: "iowa", Name: "Iowa Plains", Country: "United States",
			Point: orb.Point{-93.6250, 42.0308}, Climate: types.ClimateTemperate, Difficulty: "easy",
			Description: "Deep prairie soils with reliable summer rain",
		},
		{
			ID: "normandy", Name: "Normandy", Country: "France",
			Point: orb.Point{-0.3707, 49.1829}, Climate: types.ClimateTemperate, Difficulty: "easy",
			Description: "Mild oceanic farmland",
		},
		{
			ID: "andalusia", Name: "Andalusia", Country: "Spain",
			Point: orb.Point{-5.9845, 37.3891}, Climate: types.ClimateMediterranean, Difficulty: "medium",
			Description: "Hot dry summers and wet winters",
		},
		{
			ID: "yakutsk", Name: "Yakutsk", Country: "Russia",
			Point: orb.Point{129.7331, 62.0355}, Climate: types.ClimateCold, Difficulty: "hard",
			Description: "Permafrost steppe with a short growing season",
		},
	}
}
