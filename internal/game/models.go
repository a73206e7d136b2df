package game

import (
	"errors"

	"github.com/user/climate-farm/internal/types"
)

// CropCharacteristics are the immutable constants of a crop type
type CropCharacteristics struct {
	Name string `json:"name" yaml:"name"`

	// Score weight per unit of health x growth
	EnvironmentalContribution float64 `json:"environmentalContribution" yaml:"environmentalContribution"`

	Resistance  Resistance `json:"climateResistance" yaml:"resistance"`
	GrowthSpeed float64    `json:"growthSpeed" yaml:"growthSpeed"`
	BaseValue   int        `json:"baseValue" yaml:"baseValue"`
}

// Resistance coefficients are in [0,1]; 1 cancels the matching damage
type Resistance struct {
	Arid     float64 `json:"arid" yaml:"arid"`
	Cold     float64 `json:"cold" yaml:"cold"`
	Heat     float64 `json:"heat" yaml:"heat"`
	Humidity float64 `json:"humidity" yaml:"humidity"`
}

// ActionType names a player command
type ActionType string

const (
	ActionIrrigate  ActionType = "irrigate"
	ActionFertilize ActionType = "fertilize"
	ActionPlant     ActionType = "plant"
	ActionHarvest   ActionType = "harvest"
	ActionBuy       ActionType = "buy"
)

// Resource is something the shop sells
type Resource string

const (
	ResourceWater      Resource = "water"
	ResourceFertilizer Resource = "fertilizer"
	ResourceSeeds      Resource = "seeds"
	ResourceSlot       Resource = "slot"
)

// Action is one player command against a farm
type Action struct {
	Type     ActionType     `json:"type"`
	Slot     int            `json:"slot,omitempty"`
	CropType types.CropType `json:"cropType,omitempty"`
	Resource Resource       `json:"resource,omitempty"`
}

// Outcome reports what an accepted action did
type Outcome struct {
	Action    Action `json:"action"`
	Slot      int    `json:"slot"`
	Profit    int    `json:"profit,omitempty"`
	ScoreGain int    `json:"scoreGain,omitempty"`
	Spent     int    `json:"spent,omitempty"`
}

// Rejection reasons. A rejected action leaves the state untouched.
var (
	ErrGameOver            = errors.New("game is over")
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnknownCrop         = errors.New("unknown crop type")
	ErrUnknownResource     = errors.New("unknown resource")
	ErrCropNotFound        = errors.New("crop not found")
	ErrNotEnoughWater      = errors.New("not enough water")
	ErrNotEnoughFertilizer = errors.New("not enough fertilizer")
	ErrNotEnoughSeeds      = errors.New("not enough seeds")
	ErrNotEnoughMoney      = errors.New("not enough money")
	ErrNoFreeSlot          = errors.New("no free slot")
	ErrNotReadyForHarvest  = errors.New("crop not ready for harvest")
	ErrSlotLimitReached    = errors.New("slot limit reached")
)

var rejections = []error{
	ErrGameOver, ErrUnknownAction, ErrUnknownCrop, ErrUnknownResource,
	ErrCropNotFound, ErrNotEnoughWater, ErrNotEnoughFertilizer, ErrNotEnoughSeeds,
	ErrNotEnoughMoney, ErrNoFreeSlot, ErrNotReadyForHarvest, ErrSlotLimitReached,
}

// IsRejection reports whether err is an expected validation failure
// rather than an infrastructure error
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
