package types

import (
	"time"

	"github.com/paulmach/orb"
)

// GameStatus is the lifecycle state of a single game
type GameStatus string

const (
	StatusPlaying GameStatus = "playing"
	StatusWon     GameStatus = "won"
	StatusLost    GameStatus = "lost"
)

// Terminal reports whether no further transitions are possible
func (s GameStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// CropType identifies an entry of the crop catalog
type CropType string

const (
	Wheat   CropType = "wheat"
	Corn    CropType = "corn"
	Soybean CropType = "soybean"
	Rice    CropType = "rice"
	Tomato  CropType = "tomato"
	Potato  CropType = "potato"
	Cactus  CropType = "cactus"
	Palm    CropType = "palm"
	Bamboo  CropType = "bamboo"
)

// AllCropTypes lists the catalog in display order
var AllCropTypes = []CropType{Wheat, Corn, Soybean, Rice, Tomato, Potato, Cactus, Palm, Bamboo}

// Climate is the fixed climate classification of a farm location
type Climate string

const (
	ClimateArid          Climate = "arid"
	ClimateCold          Climate = "cold"
	ClimateTropical      Climate = "tropical"
	ClimateTemperate     Climate = "temperate"
	ClimateMediterranean Climate = "mediterranean"
)

// GameState represents one running game
type GameState struct {
	Farm    Farm       `json:"currentFarm"`
	Day     int        `json:"day"`
	Weather Weather    `json:"weather"`
	Status  GameStatus `json:"gameStatus"`
}

// Farm is the mutable aggregate the engine advances
type Farm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  Location  `json:"location"`
	Crops     []Crop    `json:"crops"`
	Resources Resources `json:"resources"`

	// Score only grows; EnvironmentalScore is a 0-100 gauge recomputed every tick
	Score              int     `json:"score"`
	EnvironmentalScore float64 `json:"environmentalScore"`

	MaxSlots int `json:"maxSlots"`
}

// Crop is a planted slot
type Crop struct {
	Slot       int      `json:"slot"`
	Type       CropType `json:"type"`
	PlantedDay int      `json:"plantedDay"`

	// Levels are kept in [0,100]
	Health             float64 `json:"health"`
	WaterLevel         float64 `json:"waterLevel"`
	FertilizationLevel float64 `json:"fertilizationLevel"`
	GrowthStage        float64 `json:"growthStage"`

	ExpectedYield int `json:"expectedYield"`
}

// Resources holds the farm's stock
type Resources struct {
	Money      int `json:"money"`
	Water      int `json:"water"`
	Fertilizer int `json:"fertilizer"`
	Seeds      int `json:"seeds"`
	Feed       int `json:"feed"`
}

// Location represents where a farm is placed
type Location struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Country     string    `json:"country" yaml:"country"`
	Point       orb.Point `json:"point" yaml:"point"` // lon, lat
	Climate     Climate   `json:"climate" yaml:"climate"`
	Difficulty  string    `json:"difficulty" yaml:"difficulty"`
	Description string    `json:"description" yaml:"description"`
}

// Lat returns the latitude of the location
func (l Location) Lat() float64 {
	return l.Point.Lat()
}

// Lon returns the longitude of the location
func (l Location) Lon() float64 {
	return l.Point.Lon()
}

// Weather is one reading from a weather provider
type Weather struct {
	Temperature   float64   `json:"temperature"`   // °C
	Precipitation float64   `json:"precipitation"` // mm
	Humidity      float64   `json:"humidity"`      // %
	WindSpeed     float64   `json:"windSpeed"`     // m/s
	SoilMoisture  float64   `json:"soilMoisture"`  // index
	ObservedAt    time.Time `json:"observedAt"`
}

// DailyForecast is one day of a provider forecast
type DailyForecast struct {
	Date          time.Time `json:"date"`
	Temperature   float64   `json:"temperature"`
	Precipitation float64   `json:"precipitation"`
	Humidity      float64   `json:"humidity"`
}

// Clone returns a deep copy of the state so transitions never share crop storage
func (s GameState) Clone() GameState {
	out := s
	if s.Farm.Crops != nil {
		out.Farm.Crops = make([]Crop, len(s.Farm.Crops))
		copy(out.Farm.Crops, s.Farm.Crops)
	}
	return out
}

// Summary holds the queryable columns extracted from a save
type Summary struct {
	Score int `json:"score"`
	Day   int `json:"day"`
	Money int `json:"money"`
}

// Summarize extracts the save summary columns
func (s GameState) Summarize() Summary {
	return Summary{
		Score: s.Farm.Score,
		Day:   s.Day,
		Money: s.Farm.Resources.Money,
	}
}
