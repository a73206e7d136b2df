package game

import (
	"fmt"
	"math"

	"github.com/user/climate-farm/internal/types"
)

// Apply validates and executes one player action. On rejection the input
// state is returned untouched together with one of the Err* values.
func (e *Engine) Apply(state types.GameState, action Action) (types.GameState, Outcome, error) {
	if state.Status.Terminal() {
		return state, Outcome{}, ErrGameOver
	}

	next := state.Clone()
	outcome := Outcome{Action: action, Slot: action.Slot}

	var err error
	switch action.Type {
	case ActionIrrigate:
		err = e.irrigate(&next, &outcome, action.Slot)
	case ActionFertilize:
		err = e.fertilize(&next, &outcome, action.Slot)
	case ActionPlant:
		err = e.plant(&next, &outcome, action.CropType)
	case ActionHarvest:
		err = e.harvest(&next, &outcome, action.Slot)
	case ActionBuy:
		err = e.buy(&next, &outcome, action.Resource)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
	if err != nil {
		return state, Outcome{}, err
	}
	return next, outcome, nil
}

func (e *Engine) irrigate(state *types.GameState, out *Outcome, slot int) error {
	a := e.rules.Actions
	res := &state.Farm.Resources

	if res.Water < a.IrrigateCost {
		return ErrNotEnoughWater
	}
	_, i, ok := FindCrop(state.Farm, slot)
	if !ok {
		return fmt.Errorf("%w: slot %d", ErrCropNotFound, slot)
	}

	res.Water -= a.IrrigateCost
	crop := &state.Farm.Crops[i]
	crop.WaterLevel = math.Min(100, crop.WaterLevel+a.IrrigateGain)
	out.Spent = a.IrrigateCost
	return nil
}

func (e *Engine) fertilize(state *types.GameState, out *Outcome, slot int) error {
	a := e.rules.Actions
	res := &state.Farm.Resources

	if res.Fertilizer < a.FertilizeCost {
		return ErrNotEnoughFertilizer
	}
	_, i, ok := FindCrop(state.Farm, slot)
	if !ok {
		return fmt.Errorf("%w: slot %d", ErrCropNotFound, slot)
	}

	res.Fertilizer -= a.FertilizeCost
	crop := &state.Farm.Crops[i]
	crop.FertilizationLevel = math.Min(100, crop.FertilizationLevel+a.FertilizeGain)
	out.Spent = a.FertilizeCost
	return nil
}

func (e *Engine) plant(state *types.GameState, out *Outcome, cropType types.CropType) error {
	a := e.rules.Actions
	start := e.rules.Start
	res := &state.Farm.Resources

	traits, ok := e.rules.Crops[cropType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCrop, cropType)
	}
	if res.Seeds < 1 {
		return ErrNotEnoughSeeds
	}
	if res.Money < a.SeedPrice {
		return ErrNotEnoughMoney
	}
	slot, ok := NextFreeSlot(state.Farm, state.Farm.MaxSlots)
	if !ok {
		return ErrNoFreeSlot
	}

	res.Seeds--
	res.Money -= a.SeedPrice
	state.Farm.Crops = append(state.Farm.Crops, types.Crop{
		Slot:               slot,
		Type:               cropType,
		PlantedDay:         state.Day,
		Health:             start.CropHealth,
		WaterLevel:         start.CropWater,
		FertilizationLevel: start.CropFertilizer,
		GrowthStage:        0,
		ExpectedYield:      traits.BaseValue,
	})
	out.Slot = slot
	out.Spent = a.SeedPrice
	return nil
}

func (e *Engine) harvest(state *types.GameState, out *Outcome, slot int) error {
	a := e.rules.Actions

	crop, i, ok := FindCrop(state.Farm, slot)
	if !ok {
		return fmt.Errorf("%w: slot %d", ErrCropNotFound, slot)
	}
	if crop.GrowthStage < a.HarvestThreshold {
		return fmt.Errorf("%w: growth %.1f", ErrNotReadyForHarvest, crop.GrowthStage)
	}

	profit := int(math.Round(float64(crop.ExpectedYield) * crop.Health / 100))
	scoreGain := profit + int(math.Round(float64(profit)*a.HarvestScoreBonus))

	state.Farm.Score += scoreGain
	state.Farm.Resources.Money += profit
	state.Farm.Resources.Seeds += a.HarvestSeedReturn
	state.Farm.Crops = append(state.Farm.Crops[:i], state.Farm.Crops[i+1:]...)

	out.Profit = profit
	out.ScoreGain = scoreGain
	return nil
}

func (e *Engine) buy(state *types.GameState, out *Outcome, kind Resource) error {
	shop := e.rules.Shop
	res := &state.Farm.Resources

	item, ok := shop.Item(kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, kind)
	}
	if res.Money < item.Price {
		return ErrNotEnoughMoney
	}
	if kind == ResourceSlot && state.Farm.MaxSlots >= shop.SlotCap {
		return ErrSlotLimitReached
	}

	res.Money -= item.Price
	switch kind {
	case ResourceWater:
		res.Water += item.Amount
	case ResourceFertilizer:
		res.Fertilizer += item.Amount
	case ResourceSeeds:
		res.Seeds += item.Amount
	case ResourceSlot:
		state.Farm.MaxSlots = min(shop.SlotCap, state.Farm.MaxSlots+item.Amount)
	}
	out.Spent = item.Price
	return nil
}
