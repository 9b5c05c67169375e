package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDecls() []Decl {
	return []Decl{
		{Name: "swing", Kind: KindNumber, Default: 0.0, Min: 0, Max: 1, HasRange: true},
		{Name: "repeats", Kind: KindInt, Default: 1, Min: 1, Max: 16, HasRange: true},
		{Name: "muted", Kind: KindBool, Default: false},
		{Name: "mode", Kind: KindEnum, Default: "normal", Options: []string{"normal", "accent", "ghost"}},
	}
}

func TestNewSetRejectsBadDefault(t *testing.T) {
	_, err := NewSet([]Decl{{Name: "swing", Kind: KindNumber, Default: 2.0, Min: 0, Max: 1, HasRange: true}})
	require.Error(t, err)
}

func TestNewSetRejectsDuplicateNames(t *testing.T) {
	_, err := NewSet([]Decl{
		{Name: "x", Kind: KindBool, Default: true},
		{Name: "x", Kind: KindBool, Default: false},
	})
	require.Error(t, err)
}

func TestDefaultsSnapshot(t *testing.T) {
	s, err := NewSet(sampleDecls())
	require.NoError(t, err)
	snap := s.Defaults()
	assert.Equal(t, 1, snap.Int("repeats"))
	assert.Equal(t, "normal", snap.Enum("mode"))
	assert.False(t, snap.Bool("muted"))
}

func TestWithAppliesValidatedOverride(t *testing.T) {
	s, err := NewSet(sampleDecls())
	require.NoError(t, err)
	base := s.Defaults()

	next, err := s.With(base, map[string]any{"swing": 0.5, "mode": "accent"})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, next.Number("swing"), 1e-9)
	assert.Equal(t, "accent", next.Enum("mode"))

	assert.InDelta(t, 0.0, base.Number("swing"), 1e-9, "base snapshot must stay unchanged")
}

func TestWithRejectsOutOfRangeOverride(t *testing.T) {
	s, err := NewSet(sampleDecls())
	require.NoError(t, err)
	_, err = s.With(s.Defaults(), map[string]any{"repeats": 99})
	require.Error(t, err)
}

func TestWithRejectsUnknownName(t *testing.T) {
	s, err := NewSet(sampleDecls())
	require.NoError(t, err)
	_, err = s.With(s.Defaults(), map[string]any{"nope": 1})
	require.Error(t, err)
}
