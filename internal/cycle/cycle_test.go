package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumLength(steps []Step) float64 {
	total := 0.0
	for _, s := range steps {
		total += s.Length
	}
	return total
}

func tokens(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		if s.Rest {
			out[i] = "~"
			continue
		}
		out[i] = s.Token
	}
	return out
}

func TestParseTopLevelStackWithoutBrackets(t *testing.T) {
	channels, err := Parse("bd sn, hh hh hh")
	require.NoError(t, err)
	require.Len(t, channels, 2)

	ev := NewEvaluator(channels, 1)
	out := ev.Emit(0)
	require.Len(t, out, 2)

	assert.Equal(t, []string{"bd", "sn"}, tokens(out[0]))
	assert.Equal(t, []string{"hh", "hh", "hh"}, tokens(out[1]))

	for _, ch := range out {
		assert.InDelta(t, 1.0, sumLength(ch), 1e-9)
	}
}

func TestParseEuclideanSubdivision(t *testing.T) {
	channels, err := Parse("bd(3,8)")
	require.NoError(t, err)
	require.Len(t, channels, 1)

	ev := NewEvaluator(channels, 1)
	out := ev.Emit(0)[0]
	require.Len(t, out, 8)
	assert.InDelta(t, 1.0, sumLength(out), 1e-9)

	want := []bool{true, false, false, true, false, false, true, false}
	for i, w := range want {
		assert.Equal(t, !w, out[i].Rest, "step %d", i)
	}
}

func TestEuclideanCannotBeFollowedByFast(t *testing.T) {
	_, err := Parse("bd(3,8)*2")
	require.Error(t, err)
}

func TestEuclideanOperandMustBeBareAtom(t *testing.T) {
	_, err := Parse("bd(<3 2>,8)")
	require.Error(t, err)
}

func TestElongationExtendsPreviousStep(t *testing.T) {
	channels, err := Parse("bd _ sn")
	require.NoError(t, err)

	ev := NewEvaluator(channels, 1)
	out := ev.Emit(0)[0]
	require.Len(t, out, 2)
	assert.Equal(t, "bd", out[0].Token)
	assert.InDelta(t, 2.0/3.0, out[0].Length, 1e-9)
	assert.Equal(t, "sn", out[1].Token)
	assert.InDelta(t, 1.0/3.0, out[1].Length, 1e-9)
}

func TestElongationWithNoPrecedingStepIsParseError(t *testing.T) {
	_, err := Parse("_ bd")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestAlternationRoundRobinsAcrossCycles(t *testing.T) {
	channels, err := Parse("<bd sn hh>")
	require.NoError(t, err)

	ev := NewEvaluator(channels, 1)
	var seen []string
	for i := uint64(0); i < 4; i++ {
		out := ev.Emit(i)[0]
		seen = append(seen, out[0].Token)
	}
	assert.Equal(t, []string{"bd", "sn", "hh", "bd"}, seen)
}

func TestSlowdownSoundsOnceEveryNCycles(t *testing.T) {
	channels, err := Parse("bd/2")
	require.NoError(t, err)

	ev := NewEvaluator(channels, 1)
	out0 := ev.Emit(0)[0]
	out1 := ev.Emit(1)[0]
	require.Len(t, out0, 1)
	require.Len(t, out1, 1)
	assert.False(t, out0[0].Rest)
	assert.True(t, out1[0].Rest)
}

func TestAttrChainAttachesToEuclideanHits(t *testing.T) {
	channels, err := Parse("bd(3,8):3")
	require.NoError(t, err)

	ev := NewEvaluator(channels, 1)
	out := ev.Emit(0)[0]
	for _, s := range out {
		if !s.Rest {
			assert.Equal(t, []string{"3"}, s.Attrs)
		}
	}
}

func TestMapTranslatesTokens(t *testing.T) {
	channels, err := Parse("bd sn")
	require.NoError(t, err)

	ev := NewEvaluator(channels, 1)
	ev.Map(func(tok string) string {
		if tok == "bd" {
			return "kick"
		}
		return tok
	})
	out := ev.Emit(0)[0]
	assert.Equal(t, "kick", out[0].Token)
	assert.Equal(t, "sn", out[1].Token)
}

func TestParseErrorReportsColumn(t *testing.T) {
	_, err := Parse("bd [sn")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Greater(t, pe.Col, 0)
}
