package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChordSynonymsNormalize(t *testing.T) {
	for _, name := range []string{"min", "m", "-", "minor"} {
		ivs, ok := ChordIntervals(name)
		assert.True(t, ok, "synonym %q should resolve", name)
		assert.Equal(t, []int{0, 3, 7}, ivs)
	}

	for _, name := range []string{"maj", "M", "^", "major"} {
		ivs, ok := ChordIntervals(name)
		assert.True(t, ok, "synonym %q should resolve", name)
		assert.Equal(t, []int{0, 4, 7}, ivs)
	}
}

func TestChordUnknownNameRejected(t *testing.T) {
	_, ok := ChordIntervals("not-a-chord")
	assert.False(t, ok)
}
