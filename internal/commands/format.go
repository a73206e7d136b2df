package commands

import (
	"fmt"
	"strings"

	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/types"
)

// Help returns the command reference with the prices of the rules table
func Help(rules game.Rules) string {
	a := rules.Actions
	var b strings.Builder
	b.WriteString("Farm commands:\n")
	fmt.Fprintf(&b, "  plant <crop>        plant in the next free slot (1 seed, $%d)\n", a.SeedPrice)
	fmt.Fprintf(&b, "  irrigate <slot>     +%.0f water level (%d water)\n", a.IrrigateGain, a.IrrigateCost)
	fmt.Fprintf(&b, "  fertilize <slot>    +%.0f fertilization (%d fertilizer)\n", a.FertilizeGain, a.FertilizeCost)
	fmt.Fprintf(&b, "  harvest <slot>      sell a crop grown past %.0f%%\n", a.HarvestThreshold)
	b.WriteString("  buy <resource>      ")
	for i, kind := range []game.Resource{game.ResourceWater, game.ResourceFertilizer, game.ResourceSeeds, game.ResourceSlot} {
		item, _ := rules.Shop.Item(kind)
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d for $%d", kind, item.Amount, item.Price)
	}
	b.WriteString("\n")
	b.WriteString("  next                advance one day\n")
	b.WriteString("  status              show the farm\n")
	b.WriteString("  help                show this message\n")
	return b.String()
}

// Status renders a farm for a terminal or chat reply
func Status(state types.GameState) string {
	f := state.Farm
	r := f.Resources
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s, %s) - day %d - %s\n", f.Name, f.Location.Name, f.Location.Climate, state.Day, state.Status)
	fmt.Fprintf(&b, "Score %d | Environment %.1f%%\n", f.Score, f.EnvironmentalScore)
	fmt.Fprintf(&b, "Money $%d | Water %d | Fertilizer %d | Seeds %d\n", r.Money, r.Water, r.Fertilizer, r.Seeds)
	fmt.Fprintf(&b, "Weather %.1f°C, %.1f mm, %.0f%% humidity\n",
		state.Weather.Temperature, state.Weather.Precipitation, state.Weather.Humidity)

	fmt.Fprintf(&b, "Crops %d/%d:\n", len(f.Crops), f.MaxSlots)
	if len(f.Crops) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range f.Crops {
		fmt.Fprintf(&b, "  #%-2d %-8s health %5.1f  water %5.1f  fert %5.1f  growth %5.1f%%\n",
			c.Slot, c.Type, c.Health, c.WaterLevel, c.FertilizationLevel, c.GrowthStage)
	}
	return b.String()
}

// Describe summarizes an accepted action
func Describe(out game.Outcome) string {
	switch out.Action.Type {
	case game.ActionPlant:
		return fmt.Sprintf("Planted %s in slot %d for $%d.", out.Action.CropType, out.Slot, out.Spent)
	case game.ActionIrrigate:
		return fmt.Sprintf("Irrigated slot %d (%d water).", out.Slot, out.Spent)
	case game.ActionFertilize:
		return fmt.Sprintf("Fertilized slot %d (%d fertilizer).", out.Slot, out.Spent)
	case game.ActionHarvest:
		return fmt.Sprintf("Harvested slot %d: +$%d, +%d score.", out.Slot, out.Profit, out.ScoreGain)
	case game.ActionBuy:
		return fmt.Sprintf("Bought %s for $%d.", out.Action.Resource, out.Spent)
	}
	return "Done."
}
