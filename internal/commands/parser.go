// Package commands turns free-text farm commands into engine actions.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/types"
)

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArg     = errors.New("missing argument")
	ErrInvalidArg     = errors.New("invalid argument")
)

// Kind separates engine actions from session-level commands
type Kind string

const (
	KindAction Kind = "action"
	KindStatus Kind = "status"
	KindHelp   Kind = "help"
	KindNext   Kind = "next"
)

// Command is a parsed line of input
type Command struct {
	Kind   Kind
	Action game.Action

	// Corrected is set when a word was matched fuzzily, e.g. "wheet" -> "wheat"
	Corrected []string
}

type verb struct {
	canonical string
	aliases   []string
	kind      Kind
	action    game.ActionType
}

var verbs = []verb{
	{canonical: "irrigate", aliases: []string{"water", "irr"}, kind: KindAction, action: game.ActionIrrigate},
	{canonical: "fertilize", aliases: []string{"fertilise", "feed", "fert"}, kind: KindAction, action: game.ActionFertilize},
	{canonical: "plant", aliases: []string{"sow", "seed"}, kind: KindAction, action: game.ActionPlant},
	{canonical: "harvest", aliases: []string{"reap", "pick", "collect"}, kind: KindAction, action: game.ActionHarvest},
	{canonical: "buy", aliases: []string{"purchase", "shop"}, kind: KindAction, action: game.ActionBuy},
	{canonical: "status", aliases: []string{"s", "info", "farm"}, kind: KindStatus},
	{canonical: "help", aliases: []string{"h", "?", "commands"}, kind: KindHelp},
	{canonical: "next", aliases: []string{"tick", "wait", "sleep"}, kind: KindNext},
}

var resources = map[string]game.Resource{
	"water":      game.ResourceWater,
	"fertilizer": game.ResourceFertilizer,
	"fertiliser": game.ResourceFertilizer,
	"seeds":      game.ResourceSeeds,
	"seed":       game.ResourceSeeds,
	"slot":       game.ResourceSlot,
	"plot":       game.ResourceSlot,
}

// Parser resolves commands against a crop catalog
type Parser struct {
	verbs     map[string]verb
	verbNames []string
	crops     []string
	resources []string
}

// NewParser creates a parser that accepts the given crop names
func NewParser(crops []types.CropType) *Parser {
	p := &Parser{verbs: make(map[string]verb)}
	for _, v := range verbs {
		p.verbs[v.canonical] = v
		for _, a := range v.aliases {
			p.verbs[a] = v
		}
	}
	for name := range p.verbs {
		p.verbNames = append(p.verbNames, name)
	}
	sort.Strings(p.verbNames)

	for _, c := range crops {
		p.crops = append(p.crops, string(c))
	}
	sort.Strings(p.crops)

	for name := range resources {
		p.resources = append(p.resources, name)
	}
	sort.Strings(p.resources)
	return p
}

// NewParserForRules accepts every crop of the rules table
func NewParserForRules(rules game.Rules) *Parser {
	entries := rules.Catalog()
	crops := make([]types.CropType, len(entries))
	for i, e := range entries {
		crops[i] = e.Type
	}
	return NewParser(crops)
}

// Parse reads one command line
func (p *Parser) Parse(text string) (Command, error) {
	tokens := strings.Fields(cleanCommand(text))
	if len(tokens) == 0 {
		return Command{}, ErrEmptyCommand
	}

	var cmd Command
	name, ok := p.resolve(tokens[0], p.verbNames)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, tokens[0])
	}
	if name != tokens[0] {
		cmd.Corrected = append(cmd.Corrected, tokens[0]+" -> "+name)
	}
	v := p.verbs[name]
	cmd.Kind = v.kind
	if v.kind != KindAction {
		return cmd, nil
	}

	cmd.Action.Type = v.action
	args := tokens[1:]

	switch v.action {
	case game.ActionIrrigate, game.ActionFertilize, game.ActionHarvest:
		slot, err := parseSlot(args)
		if err != nil {
			return Command{}, fmt.Errorf("%s: %w", v.canonical, err)
		}
		cmd.Action.Slot = slot

	case game.ActionPlant:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%s: %w: crop type", v.canonical, ErrMissingArg)
		}
		crop, ok := p.resolve(args[0], p.crops)
		if !ok {
			return Command{}, fmt.Errorf("%s: %w: unknown crop %q", v.canonical, ErrInvalidArg, args[0])
		}
		if crop != args[0] {
			cmd.Corrected = append(cmd.Corrected, args[0]+" -> "+crop)
		}
		cmd.Action.CropType = types.CropType(crop)

	case game.ActionBuy:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%s: %w: resource", v.canonical, ErrMissingArg)
		}
		name, ok := p.resolve(args[0], p.resources)
		if !ok {
			return Command{}, fmt.Errorf("%s: %w: unknown resource %q", v.canonical, ErrInvalidArg, args[0])
		}
		if name != args[0] {
			cmd.Corrected = append(cmd.Corrected, args[0]+" -> "+name)
		}
		cmd.Action.Resource = resources[name]
	}

	return cmd, nil
}

// resolve picks the closest candidate: exact, then unique prefix, then edit distance
func (p *Parser) resolve(token string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == token {
			return c, true
		}
	}

	if len(token) >= 2 {
		var match string
		n := 0
		for _, c := range candidates {
			if strings.HasPrefix(c, token) {
				match = c
				n++
			}
		}
		if n == 1 {
			return match, true
		}
	}

	if len(token) < 3 {
		return "", false
	}
	best, bestDist, tie := "", -1, false
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(token, c)
		if dist > distanceLimit(len(c)) {
			continue
		}
		switch {
		case bestDist < 0 || dist < bestDist:
			best, bestDist, tie = c, dist, false
		case dist == bestDist:
			tie = true
		}
	}
	if bestDist < 0 || tie {
		return "", false
	}
	return best, true
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// parseSlot accepts "3", "#3" and "slot 3"
func parseSlot(args []string) (int, error) {
	if len(args) > 0 && args[0] == "slot" {
		args = args[1:]
	}
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: slot", ErrMissingArg)
	}
	slot, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("%w: slot %q", ErrInvalidArg, args[0])
	}
	return slot, nil
}

// cleanCommand normalizes a command string
func cleanCommand(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	command = strings.TrimPrefix(command, "/")
	return command
}
