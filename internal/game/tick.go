package game

import (
	"math"

	"github.com/user/climate-farm/internal/types"
)

// Tick advances the game by one simulated day using the weather reading
// stored in the state. The input is never modified. Ticking a finished
// game returns it unchanged.
func (e *Engine) Tick(state types.GameState) types.GameState {
	if state.Status.Terminal() {
		return state.Clone()
	}

	next := state.Clone()
	climate := state.Farm.Location.Climate

	survivors := make([]types.Crop, 0, len(next.Farm.Crops))
	for _, crop := range next.Farm.Crops {
		crop = e.advanceCrop(crop, climate, state.Weather)
		if crop.Health > 0 {
			survivors = append(survivors, crop)
		}
	}
	next.Farm.Crops = survivors

	env := e.EnvironmentalScore(survivors)
	next.Farm.Score += e.scoreDelta(survivors)
	next.Farm.EnvironmentalScore = env

	income := e.passiveIncome(survivors) + e.dailyIncome(state.Day) + e.environmentalBonus(env)
	next.Farm.Resources.Money += income

	next.Status = e.nextStatus(state.Day, next.Farm.Resources.Money, survivors, env)
	next.Day = state.Day + 1

	return next
}

// advanceCrop applies one day of decay, stress, growth and weather to a crop
func (e *Engine) advanceCrop(crop types.Crop, climate types.Climate, w types.Weather) types.Crop {
	r := e.rules
	traits := r.Characteristics(crop.Type)

	// Growth is keyed on the levels the crop started the day with
	growth := crop.GrowthStage + e.growthIncrement(crop, traits)

	water := crop.WaterLevel - r.Decay.Water
	fertilizer := crop.FertilizationLevel - r.Decay.Fertilizer
	health := crop.Health

	health -= r.WaterStress.penalty(water)
	health -= r.FertilizerStress.penalty(fertilizer)
	health -= e.climateExposure(traits, climate, w)

	if w.Precipitation > 0 {
		water += w.Precipitation * r.Rain.Multiplier
	}

	health -= e.extremeTemperature(traits, w)

	crop.Health = clamp(health, 0, 100)
	crop.WaterLevel = clamp(water, 0, 100)
	crop.FertilizationLevel = clamp(fertilizer, 0, 100)
	crop.GrowthStage = math.Min(growth, 100)

	return crop
}

func (e *Engine) growthIncrement(crop types.Crop, traits CropCharacteristics) float64 {
	g := e.rules.Growth
	multiplier := traits.GrowthSpeed * g.SpeedFactor

	switch {
	case crop.WaterLevel > g.Best.Water && crop.FertilizationLevel > g.Best.Fertilizer && crop.Health > g.Best.Health:
		return g.Best.Increment * multiplier
	case crop.WaterLevel > g.Middle.Water && crop.FertilizationLevel > g.Middle.Fertilizer && crop.Health > g.Middle.Health:
		return g.Middle.Increment * multiplier
	case crop.Health > g.FloorHealth:
		return g.MinimalIncrement * multiplier
	default:
		return 0
	}
}

// climateExposure is the damage from the farm's climate meeting today's weather
func (e *Engine) climateExposure(traits CropCharacteristics, climate types.Climate, w types.Weather) float64 {
	x := e.rules.Exposure

	switch climate {
	case types.ClimateArid:
		if w.Temperature > x.AridTemperature {
			return (1 - traits.Resistance.Arid) * x.AridWeight
		}
	case types.ClimateCold:
		if w.Temperature < x.ColdTemperature {
			return (1 - traits.Resistance.Cold) * x.ColdWeight
		}
	case types.ClimateTropical:
		if w.Humidity > x.TropicalHumidity {
			return (1 - traits.Resistance.Humidity) * x.HumidityWeight
		}
	}
	return 0
}

// extremeTemperature applies regardless of climate and stacks with climateExposure
func (e *Engine) extremeTemperature(traits CropCharacteristics, w types.Weather) float64 {
	x := e.rules.Extreme

	switch {
	case w.Temperature > x.High:
		return (1 - traits.Resistance.Heat) * x.Weight
	case w.Temperature < x.Low:
		return (1 - traits.Resistance.Cold) * x.Weight
	default:
		return 0
	}
}

func (e *Engine) scoreDelta(crops []types.Crop) int {
	s := e.rules.Scoring
	points := 0
	for _, c := range crops {
		switch {
		case c.Health > s.ThrivingHealth && c.GrowthStage > s.ThrivingGrowth:
			points += s.ThrivingPoints
		case c.Health > s.HealthyHealth:
			points += s.HealthyPoints
		}
	}
	return points
}

// EnvironmentalScore is the 0-100 gauge for a crop set. It is recomputed
// from scratch, never accumulated.
func (e *Engine) EnvironmentalScore(crops []types.Crop) float64 {
	total := 0.0
	for _, c := range crops {
		traits := e.rules.Characteristics(c.Type)
		total += traits.EnvironmentalContribution * (c.Health / 100) * (c.GrowthStage / 100)
	}
	return math.Min(100, total/e.rules.Environment.Ceiling()*100)
}

func (e *Engine) passiveIncome(crops []types.Crop) int {
	healthy := 0
	for _, c := range crops {
		if c.Health > e.rules.Income.PassiveHealth {
			healthy++
		}
	}
	return healthy * e.rules.Income.PassivePerCrop
}

// dailyIncome steps up every DailyPeriod days
func (e *Engine) dailyIncome(day int) int {
	in := e.rules.Income
	return (day / in.DailyPeriod) * in.DailyStep
}

func (e *Engine) environmentalBonus(env float64) int {
	return int(math.Floor(env * e.rules.Income.EnvironmentalBonusRate))
}

// nextStatus decides victory or defeat for a game that is still playing
func (e *Engine) nextStatus(day, money int, crops []types.Crop, env float64) types.GameStatus {
	end := e.rules.End
	status := types.StatusPlaying

	if env >= end.WinScore {
		status = types.StatusWon
	}
	if len(crops) == 0 {
		if money < 0 {
			status = types.StatusLost
		}
		if money < end.StagnationMoney && day > end.GraceDays {
			status = types.StatusLost
		}
	}
	return status
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
