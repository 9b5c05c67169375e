package rhythmscript

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/Conceptual-Machines/rhythmforge/internal/rhythm"
)

// Descriptor is the parsed, pre-validated result of one rhythmscript call:
// everything rhythm.NewMachine needs except the TimeBase and gate/event
// callbacks, which only the host (internal/host) can supply.
type Descriptor struct {
	Pattern pulse.Pattern
	Unit    rhythm.Unit
	Value   float64
	Offset  float64
	Repeat  rhythm.RepeatPolicy
	Trigger rhythm.TriggerPolicy
	Seed    uint64
}

// Parser compiles rhythmscript source using a grammar-school-go engine.
type Parser struct {
	engine *gs.Engine
	dsl    *dsl
	result *Descriptor
	err    error
}

type dsl struct {
	parser *Parser
}

// NewParser builds a Parser ready to compile rhythmscript descriptors.
func NewParser() (*Parser, error) {
	p := &Parser{dsl: &dsl{}}
	p.dsl.parser = p

	larkParser := gs.NewLarkParser()
	engine, err := gs.NewEngine(Grammar(), p.dsl, larkParser)
	if err != nil {
		return nil, fmt.Errorf("rhythmscript: failed to build engine: %w", err)
	}
	p.engine = engine
	return p, nil
}

// Parse compiles one rhythmscript descriptor string.
func (p *Parser) Parse(src string) (*Descriptor, error) {
	if src == "" {
		return nil, fmt.Errorf("rhythmscript: empty source")
	}
	p.result = nil
	p.err = nil

	if err := p.engine.Execute(context.Background(), src); err != nil {
		return nil, fmt.Errorf("rhythmscript: %w", err)
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.result == nil {
		return nil, fmt.Errorf("rhythmscript: no rhythm() call found")
	}
	return p.result, nil
}

// Rhythm handles rhythm(...) calls dispatched by the engine.
func (d *dsl) Rhythm(args gs.Args) error {
	p := d.parser

	gridVal, ok := args["grid"]
	if !ok || gridVal.Kind != gs.ValueString {
		return fmt.Errorf("rhythm: missing grid")
	}
	grid := strings.Trim(gridVal.Str, "\"")
	pat, err := parseGrid(grid)
	if err != nil {
		p.err = err
		return err
	}

	desc := &Descriptor{Pattern: pat, Unit: rhythm.UnitBeats, Value: 0.25, Repeat: rhythm.RepeatPolicy{Kind: rhythm.RepeatForever}}

	if unitVal, ok := args["unit"]; ok && unitVal.Kind == gs.ValueString {
		u, err := parseUnit(strings.Trim(unitVal.Str, "\""))
		if err != nil {
			p.err = err
			return err
		}
		desc.Unit = u
	}
	if v, ok := args["value"]; ok && v.Kind == gs.ValueNumber {
		desc.Value = v.Num
	}
	if v, ok := args["offset"]; ok && v.Kind == gs.ValueNumber {
		desc.Offset = v.Num
	}
	if v, ok := args["seed"]; ok && v.Kind == gs.ValueNumber {
		desc.Seed = uint64(v.Num)
	}
	if v, ok := args["repeat"]; ok && v.Kind == gs.ValueString {
		rp, err := parseRepeat(strings.Trim(v.Str, "\""))
		if err != nil {
			p.err = err
			return err
		}
		desc.Repeat = rp
	}
	if v, ok := args["trigger"]; ok && v.Kind == gs.ValueString {
		switch strings.Trim(v.Str, "\"") {
		case "mono":
			desc.Trigger = rhythm.TriggerMono
		case "poly":
			desc.Trigger = rhythm.TriggerPoly
		default:
			err := fmt.Errorf("rhythm: unknown trigger policy %q", v.Str)
			p.err = err
			return err
		}
	}

	p.result = desc
	return nil
}

// parseGrid turns a drummer-grid-style string into a Pattern: 'x' is a
// full-velocity hit, '1'-'9' scale velocity by digit/9, '-' is a rest, and
// any other character is an error.
func parseGrid(grid string) (pulse.Pattern, error) {
	if grid == "" {
		return nil, fmt.Errorf("rhythm: grid must not be empty")
	}
	out := make(pulse.Pattern, len(grid))
	for i, r := range grid {
		switch {
		case r == 'x' || r == 'X':
			out[i] = pulse.Leaf(1.0)
		case r == '-':
			out[i] = pulse.Leaf(0.0)
		case r >= '1' && r <= '9':
			out[i] = pulse.Leaf(pulse.Value(float64(r-'0') / 9.0))
		default:
			return nil, fmt.Errorf("rhythm: invalid grid character %q at position %d", r, i)
		}
	}
	return out, nil
}

func parseUnit(s string) (rhythm.Unit, error) {
	switch s {
	case "ms", "millis":
		return rhythm.UnitMillis, nil
	case "seconds", "s":
		return rhythm.UnitSeconds, nil
	case "beats":
		return rhythm.UnitBeats, nil
	case "bars":
		return rhythm.UnitBars, nil
	case "cycle":
		return rhythm.UnitCycleFraction, nil
	default:
		return 0, fmt.Errorf("rhythm: unknown unit %q", s)
	}
}

func parseRepeat(s string) (rhythm.RepeatPolicy, error) {
	switch s {
	case "false":
		return rhythm.RepeatPolicy{Kind: rhythm.RepeatNone}, nil
	case "true":
		return rhythm.RepeatPolicy{Kind: rhythm.RepeatForever}, nil
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return rhythm.RepeatPolicy{}, fmt.Errorf("rhythm: invalid repeat value %q", s)
		}
		return rhythm.RepeatPolicy{Kind: rhythm.RepeatCount, Count: n}, nil
	}
}
