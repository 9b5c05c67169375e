// Package host is the binding layer between a rhythm machine and the code
// embedding it: it validates the descriptor of recognized rhythm options,
// wires the Gate and Event callbacks (there are no pulse-source or
// cycle-map callbacks, and no contexts for them), and
// isolates the engine from callback failures — a callback that panics or
// returns an error only silences that one pulse, logged via
// internal/logging, rather than taking the whole run down.
package host

import (
	"fmt"

	"github.com/Conceptual-Machines/rhythmforge/internal/cycle"
	"github.com/Conceptual-Machines/rhythmforge/internal/logging"
	"github.com/Conceptual-Machines/rhythmforge/internal/note"
	"github.com/Conceptual-Machines/rhythmforge/internal/params"
	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/Conceptual-Machines/rhythmforge/internal/rhythm"
	"github.com/Conceptual-Machines/rhythmforge/internal/rng"
	"github.com/google/uuid"
)

// recognizedOptions is the set of descriptor keys a host is allowed to
// set. Anything else is rejected at validation time rather than silently
// ignored.
var recognizedOptions = map[string]bool{
	"pattern": true, "unit": true, "value": true, "offset": true,
	"repeat": true, "trigger": true, "gate": true, "seed": true,
	"channel": true, "map": true,
}

// Descriptor is the host-facing configuration for one rhythm instance.
// Unset callback fields fall back to the engine defaults documented on
// rhythm.Spec.
type Descriptor struct {
	ID      string
	Script  string
	Pattern pulse.Pattern
	Unit    rhythm.Unit
	Value   float64
	Offset  float64
	Repeat  rhythm.RepeatPolicy
	Trigger rhythm.TriggerPolicy
	Seed    uint64

	Gate     PulseGateFunc
	OnEvent  NoteEventFunc
	Channel  []cycle.Step // one cycle's worth of mini-notation steps, if this instance derives notes from one
	MapTable map[string]string
	Options  map[string]bool // which optional keys the caller actually set, for validation
}

// PulseGateFunc decides whether a pulse fires; a panic or it returning an
// error is caught and treated as "no".
type PulseGateFunc func(rhythm.GateContext) (bool, error)

// NoteEventFunc receives a fired pulse's EventContext plus, when a cycle
// channel is bound, the resolved Note for that slot.
type NoteEventFunc func(rhythm.EventContext, note.Note)

// Validate rejects any descriptor Options key host doesn't recognize:
// unrecognized options are a validation error, not a silently ignored
// no-op.
func Validate(opts map[string]bool) error {
	for k := range opts {
		if !recognizedOptions[k] {
			return fmt.Errorf("host: unrecognized rhythm option %q", k)
		}
	}
	return nil
}

// Instance binds a Descriptor to a live rhythm.Machine and, optionally, the
// Descriptor's Channel steps supplying per-pulse note tokens.
type Instance struct {
	desc    Descriptor
	machine *rhythm.Machine
	ident   logging.RhythmIdentity
}

// New validates desc and constructs a ready-to-Start Instance.
func New(desc Descriptor, tb rhythm.TimeBase, paramSnapshot params.Snapshot) (*Instance, error) {
	if err := Validate(desc.Options); err != nil {
		return nil, err
	}
	if len(desc.Pattern) == 0 {
		return nil, fmt.Errorf("host: descriptor has an empty pattern")
	}
	if desc.ID == "" {
		desc.ID = uuid.New().String()
	}

	ident := logging.RhythmIdentity{ID: desc.ID, Script: desc.Script}

	spec := rhythm.Spec{
		Pattern: desc.Pattern,
		Unit:    desc.Unit,
		Value:   desc.Value,
		Offset:  desc.Offset,
		Repeat:  desc.Repeat,
		Trigger: desc.Trigger,
		Params:  paramSnapshot,
		Seed:    desc.Seed,
		Gate:    wrapGate(desc.Gate, ident),
	}

	m, err := rhythm.NewMachine(spec, tb)
	if err != nil {
		return nil, err
	}

	inst := &Instance{desc: desc, machine: m, ident: ident}
	return inst, nil
}

// wrapGate adapts a PulseGateFunc that can fail into the rhythm.GateFunc
// shape, catching panics and errors and logging them rather than letting
// a single bad callback invocation kill playback.
func wrapGate(fn PulseGateFunc, ident logging.RhythmIdentity) rhythm.GateFunc {
	if fn == nil {
		return nil
	}
	return func(ctx rhythm.GateContext) (fires bool) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("gate callback panicked", fmt.Errorf("%v", r), logging.WithIdentity(ident))
				fires = false
			}
		}()
		ok, err := fn(ctx)
		if err != nil {
			logging.Error("gate callback returned an error", err, logging.WithIdentity(ident))
			return false
		}
		return ok
	}
}

// Start begins playback.
func (inst *Instance) Start() { inst.machine.Start() }

// Stop halts playback immediately.
func (inst *Instance) Stop() { inst.machine.Stop() }

// State reports the underlying machine's lifecycle stage.
func (inst *Instance) State() rhythm.State { return inst.machine.State() }

// RNG returns the stream seeded from Descriptor.Seed, letting a caller-built
// PulseGateFunc draw from the same reproducibility anchor the instance runs
// on instead of standing up its own disconnected stream.
func (inst *Instance) RNG() *rng.Source { return inst.machine.RNG() }

// Pull advances playback by windowSamples, resolving each fired pulse
// into a Note via the bound cycle channel (if any) before invoking
// OnEvent. A callback panic is caught and logged; the pulse it belongs to
// is simply dropped from the caller's perspective, never escalated.
func (inst *Instance) Pull(windowSamples float64) {
	events := inst.machine.Pull(windowSamples)
	for _, ev := range events {
		inst.dispatch(ev)
	}
}

func (inst *Instance) dispatch(ev rhythm.EventContext) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("event callback panicked", fmt.Errorf("%v", r), logging.WithIdentity(inst.ident))
		}
	}()
	if inst.desc.OnEvent == nil {
		return
	}

	n := note.Note{note.DefaultNoteEvent(note.KeyRest)}
	idx := ev.Counters.PulseStep - 1
	if len(inst.desc.Channel) > 0 && idx >= 0 && idx < len(inst.desc.Channel) {
		step := inst.desc.Channel[idx]
		if !step.Rest {
			text := step.Token
			if inst.desc.MapTable != nil {
				if mapped, ok := inst.desc.MapTable[step.Token]; ok {
					text = mapped
				}
			}
			parsed, err := note.Parse(text)
			if err != nil {
				logging.Error("failed to parse cycle step as a note", err, logging.WithIdentity(inst.ident))
			} else {
				n = parsed
			}
		}
	}
	inst.desc.OnEvent(ev, n)
}
