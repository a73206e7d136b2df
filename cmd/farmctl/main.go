package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/user/climate-farm/internal/commands"
	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"github.com/user/climate-farm/internal/weather"
)

const appName = "climate_farm"

var errUsage = errors.New("usage")

func main() {
	slot := flag.String("slot", "default", "Save slot name")
	dataDir := flag.String("data", "", "Directory with rules.yaml and locations.yaml (built-in tables when empty)")
	seed := flag.Int64("seed", 42, "Seed of the simulated weather")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	engine, locations, err := loadTables(*dataDir)
	if err != nil {
		fatal(err)
	}

	saves, err := game.NewLocalSaveStore(appName)
	if err != nil {
		fatal(err)
	}

	c := &cli{
		engine:    engine,
		locations: locations,
		parser:    commands.NewParserForRules(engine.Rules()),
		saves:     saves,
		weather:   weather.NewSimulated(*seed, 0),
		slot:      *slot,
		out:       os.Stdout,
	}
	if err := c.run(context.Background(), flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "farmctl: %v\n", err)
	os.Exit(1)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: farmctl [-slot name] [-data dir] [-seed n] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  new -location <id>   start a new farm in the slot")
	fmt.Fprintln(w, "  status               show the farm")
	fmt.Fprintln(w, "  tick [-n days]       advance the simulation")
	fmt.Fprintln(w, "  do \"<command>\"       run a farm command, e.g. do \"plant wheat\"")
	fmt.Fprintln(w, "  locations            list farm locations")
	fmt.Fprintln(w, "  crops                list the crop catalog")
}

func loadTables(dir string) (*game.Engine, *game.LocationCatalog, error) {
	loader := game.NewDataLoader(dir)
	rulesPath, locationsPath := "", ""
	if dir != "" {
		rulesPath, locationsPath = "rules.yaml", "locations.yaml"
	}

	rules, err := loader.LoadRules(rulesPath)
	if err != nil {
		return nil, nil, err
	}
	locations, err := loader.LoadLocations(locationsPath)
	if err != nil {
		return nil, nil, err
	}
	return game.NewEngine(rules), locations, nil
}

// cli runs one farmctl invocation against a save slot
type cli struct {
	engine    *game.Engine
	locations *game.LocationCatalog
	parser    *commands.Parser
	saves     interfaces.SaveStore
	weather   *weather.Simulated
	slot      string
	out       io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "new":
		return c.newGame(ctx, args[1:])
	case "status":
		state, err := c.load(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, commands.Status(state))
		return nil
	case "tick":
		return c.tick(ctx, args[1:])
	case "do":
		return c.do(ctx, strings.Join(args[1:], " "))
	case "locations":
		return c.listLocations()
	case "crops":
		return c.listCrops()
	case "help", "-h", "--help":
		usage(c.out)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func (c *cli) newGame(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	locationID := fs.String("location", "", "Location id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *locationID == "" {
		return fmt.Errorf("%w: -location is required", errUsage)
	}

	location, err := c.locations.Find(*locationID)
	if err != nil {
		return err
	}

	state := c.engine.NewGameState(location)
	state.Weather = c.weatherFor(state)
	if err := c.saves.SaveGame(ctx, c.slot, state); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "New farm in slot %q.\n", c.slot)
	fmt.Fprint(c.out, commands.Status(state))
	return nil
}

func (c *cli) tick(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tick", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	days := fs.Int("n", 1, "Days to advance")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *days < 1 {
		return fmt.Errorf("%w: -n must be at least 1", errUsage)
	}

	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < *days && !state.Status.Terminal(); i++ {
		state = c.advance(state)
		fmt.Fprintf(c.out, "Day %3d  score %5d  money %6d  environment %5.1f%%  crops %d\n",
			state.Day, state.Farm.Score, state.Farm.Resources.Money,
			state.Farm.EnvironmentalScore, len(state.Farm.Crops))
	}
	reportEnd(c.out, state)

	return c.saves.SaveGame(ctx, c.slot, state)
}

func (c *cli) do(ctx context.Context, text string) error {
	cmd, err := c.parser.Parse(text)
	if err != nil {
		return err
	}
	for _, fix := range cmd.Corrected {
		fmt.Fprintf(c.out, "(%s)\n", fix)
	}

	if cmd.Kind == commands.KindHelp {
		fmt.Fprint(c.out, commands.Help(c.engine.Rules()))
		return nil
	}

	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case commands.KindStatus:
		fmt.Fprint(c.out, commands.Status(state))
		return nil
	case commands.KindNext:
		state = c.advance(state)
		fmt.Fprintf(c.out, "Day %d begins.\n", state.Day)
		reportEnd(c.out, state)
	case commands.KindAction:
		next, outcome, err := c.engine.Apply(state, cmd.Action)
		if err != nil {
			return fmt.Errorf("cannot do that: %w", err)
		}
		state = next
		fmt.Fprintln(c.out, commands.Describe(outcome))
	}

	return c.saves.SaveGame(ctx, c.slot, state)
}

// advance refreshes the weather for the day and runs one tick
func (c *cli) advance(state types.GameState) types.GameState {
	state.Weather = c.weatherFor(state)
	return c.engine.Tick(state)
}

func (c *cli) weatherFor(state types.GameState) types.Weather {
	loc := state.Farm.Location
	return c.weather.Reading(loc.Lat(), loc.Lon(), int64(state.Day))
}

func (c *cli) load(ctx context.Context) (types.GameState, error) {
	state, _, err := c.saves.LoadGame(ctx, c.slot)
	if errors.Is(err, game.ErrNoSave) {
		return state, fmt.Errorf("slot %q is empty, start one with: farmctl new -location <id>: %w", c.slot, err)
	}
	return state, err
}

func (c *cli) listLocations() error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tCLIMATE\tDIFFICULTY")
	for _, l := range c.locations.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Country, l.Climate, l.Difficulty)
	}
	return w.Flush()
}

func (c *cli) listCrops() error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tVALUE\tSPEED\tENV\tARID\tCOLD\tHEAT\tHUMIDITY")
	for _, e := range c.engine.Rules().Catalog() {
		r := e.Resistance
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.0f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			e.Type, e.BaseValue, e.GrowthSpeed, e.EnvironmentalContribution, r.Arid, r.Cold, r.Heat, r.Humidity)
	}
	return w.Flush()
}

func reportEnd(w io.Writer, state types.GameState) {
	switch state.Status {
	case types.StatusWon:
		fmt.Fprintf(w, "The land is restored! Final score %d on day %d.\n", state.Farm.Score, state.Day)
	case types.StatusLost:
		fmt.Fprintf(w, "The farm has failed on day %d. Final score %d.\n", state.Day, state.Farm.Score)
	}
}
