package game

import (
	"errors"
	"fmt"

	"github.com/user/climate-farm/internal/types"
)

// Rules holds every tuning constant of the simulation.
// The zero value is not usable; start from DefaultRules.
type Rules struct {
	Crops map[types.CropType]CropCharacteristics `yaml:"crops"`

	Decay            DecayRules       `yaml:"decay"`
	WaterStress      StressRules      `yaml:"waterStress"`
	FertilizerStress StressRules      `yaml:"fertilizerStress"`
	Exposure         ExposureRules    `yaml:"exposure"`
	Growth           GrowthRules      `yaml:"growth"`
	Rain             RainRules        `yaml:"rain"`
	Extreme          ExtremeRules     `yaml:"extreme"`
	Scoring          ScoringRules     `yaml:"scoring"`
	Income           IncomeRules      `yaml:"income"`
	Environment      EnvironmentRules `yaml:"environment"`
	End              EndRules         `yaml:"end"`
	Actions          ActionRules      `yaml:"actions"`
	Shop             ShopRules        `yaml:"shop"`
	Start            StartRules       `yaml:"start"`
}

// DecayRules are the per-day passive losses
type DecayRules struct {
	Water      float64 `yaml:"water"`
	Fertilizer float64 `yaml:"fertilizer"`
}

// StressRules is a two-tier health penalty ladder
type StressRules struct {
	Low        float64 `yaml:"low"`
	LowPenalty float64 `yaml:"lowPenalty"`
	Mid        float64 `yaml:"mid"`
	MidPenalty float64 `yaml:"midPenalty"`
}

// penalty returns the health loss for a level
func (s StressRules) penalty(level float64) float64 {
	switch {
	case level < s.Low:
		return s.LowPenalty
	case level < s.Mid:
		return s.MidPenalty
	default:
		return 0
	}
}

// ExposureRules trigger climate damage for a farm's climate classification
type ExposureRules struct {
	AridTemperature  float64 `yaml:"aridTemperature"`
	AridWeight       float64 `yaml:"aridWeight"`
	ColdTemperature  float64 `yaml:"coldTemperature"`
	ColdWeight       float64 `yaml:"coldWeight"`
	TropicalHumidity float64 `yaml:"tropicalHumidity"`
	HumidityWeight   float64 `yaml:"humidityWeight"`
}

// GrowthTier is one rung of the growth ladder
type GrowthTier struct {
	Water      float64 `yaml:"water"`
	Fertilizer float64 `yaml:"fertilizer"`
	Health     float64 `yaml:"health"`
	Increment  float64 `yaml:"increment"`
}

// GrowthRules describe the three-tier growth ladder
type GrowthRules struct {
	SpeedFactor      float64    `yaml:"speedFactor"`
	Best             GrowthTier `yaml:"best"`
	Middle           GrowthTier `yaml:"middle"`
	FloorHealth      float64    `yaml:"floorHealth"`
	MinimalIncrement float64    `yaml:"minimalIncrement"`
}

// RainRules convert precipitation into crop water
type RainRules struct {
	Multiplier float64 `yaml:"multiplier"`
}

// ExtremeRules apply heat and frost damage on top of climate exposure
type ExtremeRules struct {
	High   float64 `yaml:"high"`
	Low    float64 `yaml:"low"`
	Weight float64 `yaml:"weight"`
}

// ScoringRules award points per surviving crop each tick
type ScoringRules struct {
	ThrivingHealth float64 `yaml:"thrivingHealth"`
	ThrivingGrowth float64 `yaml:"thrivingGrowth"`
	ThrivingPoints int     `yaml:"thrivingPoints"`
	HealthyHealth  float64 `yaml:"healthyHealth"`
	HealthyPoints  int     `yaml:"healthyPoints"`
}

// IncomeRules describe money earned each tick
type IncomeRules struct {
	PassiveHealth          float64 `yaml:"passiveHealth"`
	PassivePerCrop         int     `yaml:"passivePerCrop"`
	DailyStep              int     `yaml:"dailyStep"`
	DailyPeriod            int     `yaml:"dailyPeriod"`
	EnvironmentalBonusRate float64 `yaml:"environmentalBonusRate"`
}

// EnvironmentRules fix the normalization ceiling of the environmental score.
// BaseSlots stays at the base design's slot count even when more slots are bought.
type EnvironmentRules struct {
	BaseSlots       int     `yaml:"baseSlots"`
	MaxContribution float64 `yaml:"maxContribution"`
}

// Ceiling is the theoretical maximum raw contribution
func (e EnvironmentRules) Ceiling() float64 {
	return float64(e.BaseSlots) * e.MaxContribution
}

// EndRules decide victory and defeat
type EndRules struct {
	WinScore        float64 `yaml:"winScore"`
	StagnationMoney int     `yaml:"stagnationMoney"`
	GraceDays       int     `yaml:"graceDays"`
}

// ActionRules price and size the crop-level actions
type ActionRules struct {
	IrrigateCost      int     `yaml:"irrigateCost"`
	IrrigateGain      float64 `yaml:"irrigateGain"`
	FertilizeCost     int     `yaml:"fertilizeCost"`
	FertilizeGain     float64 `yaml:"fertilizeGain"`
	SeedPrice         int     `yaml:"seedPrice"`
	HarvestThreshold  float64 `yaml:"harvestThreshold"`
	HarvestScoreBonus float64 `yaml:"harvestScoreBonus"`
	HarvestSeedReturn int     `yaml:"harvestSeedReturn"`
}

// ShopItem is one purchasable pack
type ShopItem struct {
	Price  int `yaml:"price" json:"price"`
	Amount int `yaml:"amount" json:"amount"`
}

// ShopRules price the buy action
type ShopRules struct {
	Water      ShopItem `yaml:"water"`
	Fertilizer ShopItem `yaml:"fertilizer"`
	Seeds      ShopItem `yaml:"seeds"`
	Slot       ShopItem `yaml:"slot"`
	SlotCap    int      `yaml:"slotCap"`
}

// Item returns the shop entry for a resource kind
func (s ShopRules) Item(kind Resource) (ShopItem, bool) {
	switch kind {
	case ResourceWater:
		return s.Water, true
	case ResourceFertilizer:
		return s.Fertilizer, true
	case ResourceSeeds:
		return s.Seeds, true
	case ResourceSlot:
		return s.Slot, true
	}
	return ShopItem{}, false
}

// StartRules describe a new farm and a freshly planted crop
type StartRules struct {
	Money      int `yaml:"money"`
	Water      int `yaml:"water"`
	Fertilizer int `yaml:"fertilizer"`
	Seeds      int `yaml:"seeds"`
	Feed       int `yaml:"feed"`
	MaxSlots   int `yaml:"maxSlots"`

	CropHealth     float64 `yaml:"cropHealth"`
	CropWater      float64 `yaml:"cropWater"`
	CropFertilizer float64 `yaml:"cropFertilizer"`

	Weather types.Weather `yaml:"-"`
}

// DefaultRules returns the reference tuning
func DefaultRules() Rules {
	return Rules{
		Crops: DefaultCatalog(),
		Decay: DecayRules{Water: 2, Fertilizer: 0.5},
		WaterStress: StressRules{
			Low: 20, LowPenalty: 3,
			Mid: 40, MidPenalty: 1,
		},
		FertilizerStress: StressRules{
			Low: 10, LowPenalty: 2,
			Mid: 30, MidPenalty: 0.5,
		},
		Exposure: ExposureRules{
			AridTemperature:  30,
			AridWeight:       5,
			ColdTemperature:  10,
			ColdWeight:       4,
			TropicalHumidity: 80,
			HumidityWeight:   2,
		},
		Growth: GrowthRules{
			SpeedFactor:      0.5,
			Best:             GrowthTier{Water: 50, Fertilizer: 40, Health: 70, Increment: 2},
			Middle:           GrowthTier{Water: 30, Fertilizer: 20, Health: 50, Increment: 1},
			FloorHealth:      30,
			MinimalIncrement: 0.5,
		},
		Rain:    RainRules{Multiplier: 3},
		Extreme: ExtremeRules{High: 35, Low: 5, Weight: 2},
		Scoring: ScoringRules{
			ThrivingHealth: 80,
			ThrivingGrowth: 50,
			ThrivingPoints: 3,
			HealthyHealth:  50,
			HealthyPoints:  1,
		},
		Income: IncomeRules{
			PassiveHealth:          60,
			PassivePerCrop:         5,
			DailyStep:              10,
			DailyPeriod:            5,
			EnvironmentalBonusRate: 0.5,
		},
		Environment: EnvironmentRules{BaseSlots: 12, MaxContribution: 10},
		End:         EndRules{WinScore: 100, StagnationMoney: 100, GraceDays: 10},
		Actions: ActionRules{
			IrrigateCost:      50,
			IrrigateGain:      30,
			FertilizeCost:     10,
			FertilizeGain:     20,
			SeedPrice:         50,
			HarvestThreshold:  90,
			HarvestScoreBonus: 0.2,
			HarvestSeedReturn: 2,
		},
		Shop: ShopRules{
			Water:      ShopItem{Price: 150, Amount: 500},
			Fertilizer: ShopItem{Price: 200, Amount: 50},
			Seeds:      ShopItem{Price: 200, Amount: 5},
			Slot:       ShopItem{Price: 300, Amount: 2},
			SlotCap:    24,
		},
		Start: StartRules{
			Money:          500,
			Water:          1000,
			Fertilizer:     50,
			Seeds:          5,
			Feed:           100,
			MaxSlots:       6,
			CropHealth:     100,
			CropWater:      50,
			CropFertilizer: 30,
			Weather: types.Weather{
				Temperature:   20,
				Precipitation: 0,
				Humidity:      60,
				WindSpeed:     5,
				SoilMoisture:  0.5,
			},
		},
	}
}

// Validate checks that a loaded table can drive the engine
func (r Rules) Validate() error {
	if len(r.Crops) == 0 {
		return errors.New("crop catalog cannot be empty")
	}
	for cropType, c := range r.Crops {
		if c.EnvironmentalContribution <= 0 {
			return fmt.Errorf("crop %s: environmental contribution must be positive", cropType)
		}
		if c.GrowthSpeed <= 0 {
			return fmt.Errorf("crop %s: growth speed must be positive", cropType)
		}
		for name, v := range map[string]float64{
			"arid":     c.Resistance.Arid,
			"cold":     c.Resistance.Cold,
			"heat":     c.Resistance.Heat,
			"humidity": c.Resistance.Humidity,
		} {
			if v < 0 || v > 1 {
				return fmt.Errorf("crop %s: %s resistance must be between 0 and 1, got %v", cropType, name, v)
			}
		}
	}
	if r.Environment.Ceiling() <= 0 {
		return errors.New("environment ceiling must be positive")
	}
	if r.Income.DailyPeriod <= 0 {
		return errors.New("daily income period must be positive")
	}
	if r.Start.MaxSlots <= 0 || r.Shop.SlotCap < r.Start.MaxSlots {
		return fmt.Errorf("slot cap %d must be at least the starting slots %d", r.Shop.SlotCap, r.Start.MaxSlots)
	}
	return nil
}
