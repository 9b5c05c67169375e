package rhythm

import (
	"fmt"

	"github.com/Conceptual-Machines/rhythmforge/internal/params"
	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/Conceptual-Machines/rhythmforge/internal/rng"
)

// State is a rhythm machine's lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateWaitingForOffset
	StateRunning
	StateRepeating
	StateFinishing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForOffset:
		return "waiting-for-offset"
	case StateRunning:
		return "running"
	case StateRepeating:
		return "repeating"
	case StateFinishing:
		return "finishing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RepeatKind selects how a finished pattern pass is followed.
type RepeatKind int

const (
	RepeatNone RepeatKind = iota
	RepeatForever
	RepeatCount
)

// RepeatPolicy mirrors the host-facing repeat option: false, true, or N.
type RepeatPolicy struct {
	Kind  RepeatKind
	Count int
}

// TriggerPolicy records the host-facing mono/poly trigger option. Machine
// stores it in Spec but does not act on it: each Machine is a single run,
// and no trigger folding or per-trigger instancing takes place.
type TriggerPolicy int

const (
	TriggerPoly TriggerPolicy = iota
	TriggerMono
)

// Counters track a run's progress: pulse_step and step are monotonic for
// the lifetime of a run (never reset by a repeat), pulse_time_step only
// advances when a pulse actually sounds.
type Counters struct {
	PulseStep     int
	PulseTimeStep int
	Step          int
}

// GateContext is passed to the gate callback deciding whether a pulse
// fires at all.
type GateContext struct {
	Counters Counters
	Params   params.Snapshot
	Value    pulse.Value
}

// EventContext is passed to the event emission callback for a pulse that
// passed the gate.
type EventContext struct {
	Counters        Counters
	Params          params.Snapshot
	Value           pulse.Value
	OffsetSamples   float64
	DurationSamples float64
}

// GateFunc decides whether a given pulse sounds. A nil GateFunc defaults
// to "value > 0".
type GateFunc func(GateContext) bool

// Spec is the complete, immutable description of one rhythm run.
type Spec struct {
	Pattern  pulse.Pattern
	Unit     Unit
	Value    float64
	Offset   float64 // in the same Unit as Value; samples to wait before the first pulse
	Repeat   RepeatPolicy
	Trigger  TriggerPolicy
	Gate     GateFunc
	Params   params.Snapshot
	Seed     uint64
}

// Machine drives one rhythm run against a TimeBase, producing sample-
// accurate events pulled in arbitrary-sized windows.
type Machine struct {
	spec Spec
	tb   TimeBase

	state State

	leaves      []flatLeaf
	offsetSamples float64

	cursor        int
	samplePos     float64 // fractional sample position within the leaf currently pending
	passesDone    int
	counters      Counters

	rngSrc *rng.Source
}

type flatLeaf struct {
	value  pulse.Value
	weight float64
}

// flatten walks a (possibly nested) Pulse, producing one leaf per terminal
// value with a weight equal to the product of reciprocals of every
// subdivision fan-out on the path from the top-level step.
func flatten(p pulse.Pulse, weight float64, out *[]flatLeaf) {
	if p.IsLeaf() {
		*out = append(*out, flatLeaf{value: p.Value(), weight: weight})
		return
	}
	children := p.Children()
	if len(children) == 0 {
		return
	}
	childWeight := weight / float64(len(children))
	for _, c := range children {
		flatten(c, childWeight, out)
	}
}

// NewMachine validates spec against tb and builds an Idle Machine.
func NewMachine(spec Spec, tb TimeBase) (*Machine, error) {
	if len(spec.Pattern) == 0 {
		return nil, fmt.Errorf("rhythm: pattern must have at least one step")
	}
	stepSamples, err := tb.IntervalSamples(spec.Unit, spec.Value)
	if err != nil {
		return nil, err
	}
	if stepSamples <= 0 {
		return nil, fmt.Errorf("rhythm: interval must resolve to a positive sample count")
	}

	topWeight := stepSamples / float64(len(spec.Pattern))
	var leaves []flatLeaf
	for _, p := range spec.Pattern {
		var stepLeaves []flatLeaf
		flatten(p, topWeight, &stepLeaves)
		leaves = append(leaves, stepLeaves...)
	}

	offsetSamples := 0.0
	if spec.Offset != 0 {
		offsetSamples, err = tb.IntervalSamples(spec.Unit, spec.Offset)
		if err != nil {
			return nil, err
		}
	}

	return &Machine{
		spec:          spec,
		tb:            tb,
		state:         StateIdle,
		leaves:        leaves,
		offsetSamples: offsetSamples,
		rngSrc:        seededSource(spec.Seed),
	}, nil
}

// seededSource builds the stream backing a Machine's gate RNG. A zero seed
// means "unset": it derives from rng.Global()'s current, process-entropy-
// seeded state instead of a fixed value.
func seededSource(seed uint64) *rng.Source {
	if seed == 0 {
		return rng.Local()
	}
	return rng.New(seed)
}

// RNG returns the stream seeded from Spec.Seed, letting a Gate callback
// draw from the same reproducibility anchor the machine itself was built
// with instead of managing an independent, disconnected stream.
func (m *Machine) RNG() *rng.Source { return m.rngSrc }

// Start transitions Idle into WaitingForOffset (if Offset > 0) or directly
// into Running.
func (m *Machine) Start() {
	if m.state != StateIdle {
		return
	}
	if m.offsetSamples > 0 {
		m.state = StateWaitingForOffset
	} else {
		m.state = StateRunning
	}
}

// State reports the machine's current lifecycle stage.
func (m *Machine) State() State { return m.state }

// Counters reports the machine's current progress counters.
func (m *Machine) Counters() Counters { return m.counters }

// Pull advances the machine by windowSamples and returns every event that
// fell within the window, each stamped with its offset from the window's
// start. The fractional remainder always carries into the next leaf, so
// scheduling never accumulates systematic drift.
func (m *Machine) Pull(windowSamples float64) []EventContext {
	var events []EventContext
	remaining := windowSamples
	cursor := 0.0

	for remaining > 0 {
		switch m.state {
		case StateIdle, StateStopped, StateFinishing:
			return events

		case StateWaitingForOffset:
			step := m.offsetSamples - m.samplePos
			if step > remaining {
				m.samplePos += remaining
				return events
			}
			cursor += step
			remaining -= step
			m.samplePos = 0
			m.state = StateRunning

		case StateRepeating:
			m.passesDone++
			m.cursor = 0
			if m.repeatAllowed() {
				m.state = StateRunning
			} else {
				m.state = StateFinishing
				return events
			}

		case StateRunning:
			if m.cursor >= len(m.leaves) {
				m.state = StateRepeating
				continue
			}
			leaf := m.leaves[m.cursor]
			if m.samplePos == 0 {
				// Onset: the leaf begins exactly here, so it fires now
				// regardless of whether it completes within this window.
				if ev, fired := m.fire(leaf, cursor, leaf.weight); fired {
					events = append(events, ev)
				}
			}
			step := leaf.weight - m.samplePos
			if step > remaining {
				m.samplePos += remaining
				return events
			}
			cursor += step
			remaining -= step
			m.samplePos = 0
			m.cursor++
		}
	}
	return events
}

func (m *Machine) repeatAllowed() bool {
	switch m.spec.Repeat.Kind {
	case RepeatForever:
		return true
	case RepeatCount:
		return m.passesDone < m.spec.Repeat.Count
	default:
		return false
	}
}

func (m *Machine) fire(leaf flatLeaf, offset, duration float64) (EventContext, bool) {
	m.counters.PulseStep++
	m.counters.Step = m.passesDone

	gateCtx := GateContext{Counters: m.counters, Params: m.spec.Params, Value: leaf.value}
	var fires bool
	if m.spec.Gate != nil {
		fires = m.spec.Gate(gateCtx)
	} else {
		fires = leaf.value > 0
	}
	if !fires {
		return EventContext{}, false
	}

	m.counters.PulseTimeStep++
	ev := EventContext{
		Counters:        m.counters,
		Params:          m.spec.Params,
		Value:           leaf.value,
		OffsetSamples:   offset,
		DurationSamples: duration,
	}
	return ev, true
}

// Stop forces the machine into Stopped regardless of its current state.
func (m *Machine) Stop() { m.state = StateStopped }

// Seek repositions playback to the given leaf index without emitting
// events for skipped pulses. It sets PulseStep to leafIndex; the gate is
// not evaluated for the skipped pulses, so PulseTimeStep, Step and the
// gate RNG are not advanced past them.
func (m *Machine) Seek(leafIndex int) {
	if leafIndex < 0 {
		leafIndex = 0
	}
	if leafIndex > len(m.leaves) {
		leafIndex = len(m.leaves)
	}
	m.cursor = leafIndex
	m.samplePos = 0
	m.counters.PulseStep = leafIndex
	if m.state == StateIdle {
		m.state = StateRunning
	}
}
