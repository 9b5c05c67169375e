package rhythm

import (
	"testing"

	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleTimeBase() TimeBase {
	return TimeBase{SampleRate: 48000, BPM: 120, BeatsPerBar: 4}
}

func TestMachineFiresOnNonEmptyPulses(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.From(1.0, 0.0, 1.0, 0.0)
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()

	events := m.Pull(tb.SamplesPerBeat())
	require.Len(t, events, 2)
	assert.InDelta(t, 0, events[0].OffsetSamples, 1e-6)
	assert.InDelta(t, tb.SamplesPerBeat()/2, events[1].OffsetSamples, 1e-6)
}

func TestMachineHonorsOffset(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.From(1.0)
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1, Offset: 1}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()
	assert.Equal(t, StateWaitingForOffset, m.State())

	events := m.Pull(tb.SamplesPerBeat() * 2)
	require.Len(t, events, 1)
	assert.InDelta(t, tb.SamplesPerBeat(), events[0].OffsetSamples, 1e-6)
}

func TestMachineNoSystematicDrift(t *testing.T) {
	tb := TimeBase{SampleRate: 44100, BPM: 133, BeatsPerBar: 4}
	pat := pulse.New(3, 1.0, nil)
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1.0, Repeat: RepeatPolicy{Kind: RepeatForever}}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()

	var allOffsets []float64
	cursor := 0.0
	for i := 0; i < 30; i++ {
		evs := m.Pull(1000)
		for _, e := range evs {
			allOffsets = append(allOffsets, cursor+e.OffsetSamples)
		}
		cursor += 1000
	}

	stepSamples := tb.SamplesPerBeat() / 3.0
	require.NotEmpty(t, allOffsets)
	for i, off := range allOffsets {
		want := float64(i) * stepSamples
		assert.InDelta(t, want, off, 0.5, "event %d drifted", i)
	}
}

// TestMachineSubdivisionFlattening checks that a top-level pattern spans
// exactly one step interval regardless of how many top-level elements it
// has: each element gets an equal share of the step, and a nested
// subdivision further splits its own share among its children.
func TestMachineSubdivisionFlattening(t *testing.T) {
	tb := simpleTimeBase()
	sub := pulse.Sub(pulse.Leaf(1), pulse.Leaf(1))
	pat := pulse.Pattern{sub, pulse.Leaf(1)}
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()

	events := m.Pull(tb.SamplesPerBeat())
	require.Len(t, events, 3)
	assert.InDelta(t, 0, events[0].OffsetSamples, 1e-6)
	assert.InDelta(t, tb.SamplesPerBeat()/4, events[1].OffsetSamples, 1e-6)
	assert.InDelta(t, tb.SamplesPerBeat()/2, events[2].OffsetSamples, 1e-6)
}

// TestMachineSubdivisionMatchesDocumentedOffsets reproduces the documented
// worked example verbatim: a two-element top-level pattern {1, {1,1}} at
// 1/4 cycle-fraction resolution, 120 BPM, 48kHz, must land its three
// onsets at {0, 12000, 18000} samples — the first top-level element gets
// the first half of the 24000-sample step, the second element's nested
// pair splits the second half evenly.
func TestMachineSubdivisionMatchesDocumentedOffsets(t *testing.T) {
	tb := TimeBase{SampleRate: 48000, BPM: 120, BeatsPerBar: 4}
	pat := pulse.Pattern{pulse.Leaf(1), pulse.Sub(pulse.Leaf(1), pulse.Leaf(1))}
	spec := Spec{Pattern: pat, Unit: UnitCycleFraction, Value: 4}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)

	require.InDelta(t, 24000, tb.SamplesPerBar()/4, 1e-6)

	m.Start()
	events := m.Pull(24000)
	require.Len(t, events, 3)
	assert.InDelta(t, 0, events[0].OffsetSamples, 1e-6)
	assert.InDelta(t, 12000, events[1].OffsetSamples, 1e-6)
	assert.InDelta(t, 18000, events[2].OffsetSamples, 1e-6)
}

func TestGateFuncCanSuppressAPulse(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.From(1.0, 1.0)
	spec := Spec{
		Pattern: pat, Unit: UnitBeats, Value: 1,
		Gate: func(ctx GateContext) bool { return ctx.Counters.PulseStep != 1 },
	}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()

	events := m.Pull(tb.SamplesPerBeat() * 2)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Counters.PulseStep)
}

func TestCountersAreMonotonicAcrossRepeats(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.From(1.0, 1.0)
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1, Repeat: RepeatPolicy{Kind: RepeatCount, Count: 2}}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Start()

	events := m.Pull(tb.SamplesPerBeat() * 6)
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, i+1, e.Counters.PulseStep)
	}
}

// TestSeededGateProducesDeterministicSubset checks that a Gate callback
// drawing from Machine.RNG() — rather than managing its own independent
// stream — produces the same subset of firings across two machines built
// from the same seed, and that a different seed produces a different
// subset.
func TestSeededGateProducesDeterministicSubset(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.New(16, 1.0, nil)

	run := func(seed uint64) []int {
		var m *Machine
		gate := func(ctx GateContext) bool {
			return m.RNG().Float64() < 0.5
		}
		spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 4, Gate: gate, Seed: seed}
		var err error
		m, err = NewMachine(spec, tb)
		require.NoError(t, err)
		m.Start()

		events := m.Pull(tb.SamplesPerBeat() * 4)
		steps := make([]int, len(events))
		for i, e := range events {
			steps[i] = e.Counters.PulseStep
		}
		return steps
	}

	first := run(42)
	second := run(42)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "same seed must reproduce the same fired subset")

	third := run(7)
	assert.NotEqual(t, first, third, "different seeds should (almost certainly) diverge")
}

func TestSeekRepositionsWithoutEmitting(t *testing.T) {
	tb := simpleTimeBase()
	pat := pulse.From(1.0, 1.0, 1.0, 1.0)
	spec := Spec{Pattern: pat, Unit: UnitBeats, Value: 1}
	m, err := NewMachine(spec, tb)
	require.NoError(t, err)
	m.Seek(2)
	assert.Equal(t, StateRunning, m.State())

	events := m.Pull(tb.SamplesPerBeat() * 4)
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].Counters.PulseStep)
}
