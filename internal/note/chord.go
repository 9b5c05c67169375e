package note

import "strings"

// chordIntervals maps a canonical chord quality name to semitone offsets
// from the root. Grounded on chord_to_midi.go's buildChordIntervals table
// (_examples/Conceptual-Machines-magda-api/internal/agents/arranger/chord_to_midi.go),
// reshaped from a quality+extensions pair into one flat name->intervals map
// since the note-string grammar takes a single 'mode suffix rather than
// separate quality/extension tokens.
var chordIntervals = map[string][]int{
	"major":      {0, 4, 7},
	"minor":      {0, 3, 7},
	"diminished": {0, 3, 6},
	"augmented":  {0, 4, 8},
	"sus2":       {0, 2, 7},
	"sus4":       {0, 5, 7},
	"major7":     {0, 4, 7, 11},
	"minor7":     {0, 3, 7, 10},
	"dominant7":  {0, 4, 7, 10},
	"diminished7": {0, 3, 6, 9},
	"major9":     {0, 4, 7, 11, 14},
	"minor9":     {0, 3, 7, 10, 14},
	"dominant9":  {0, 4, 7, 10, 14},
	"add9":       {0, 4, 7, 14},
	"major6":     {0, 4, 7, 9},
	"minor6":     {0, 3, 7, 9},
}

// chordSynonyms normalizes the many short spellings scripts use for a chord
// mode into the chordIntervals table's canonical names (min/m/-→minor,
// maj/M/^→major, etc.).
var chordSynonyms = map[string]string{
	"min": "minor", "m": "minor", "-": "minor", "minor": "minor",
	"maj": "major", "M": "major", "^": "major", "major": "major",
	"dim": "diminished", "o": "diminished", "diminished": "diminished",
	"aug": "augmented", "+": "augmented", "augmented": "augmented",
	"sus2": "sus2",
	"sus4": "sus4", "sus": "sus4",
	"maj7": "major7", "M7": "major7", "^7": "major7", "major7": "major7",
	"min7": "minor7", "m7": "minor7", "-7": "minor7", "minor7": "minor7",
	"7": "dominant7", "dom7": "dominant7", "dominant7": "dominant7",
	"dim7": "diminished7", "o7": "diminished7",
	"maj9": "major9", "M9": "major9", "major9": "major9",
	"min9": "minor9", "m9": "minor9", "minor9": "minor9",
	"9": "dominant9", "dominant9": "dominant9",
	"add9": "add9",
	"maj6": "major6", "6": "major6", "major6": "major6",
	"min6": "minor6", "m6": "minor6", "minor6": "minor6",
}

// ChordIntervals resolves a chord mode token (as written after the `'` in a
// note string, e.g. "min7") to its semitone-interval list. Falsy ok means
// the name is not recognized.
func ChordIntervals(name string) ([]int, bool) {
	canonical, ok := chordSynonyms[name]
	if !ok {
		canonical, ok = chordSynonyms[strings.ToLower(name)]
	}
	if !ok {
		return nil, false
	}
	intervals, ok := chordIntervals[canonical]
	if !ok {
		return nil, false
	}
	out := make([]int, len(intervals))
	copy(out, intervals)
	return out, true
}

// ExplicitIntervals lets a caller bypass the chord table entirely and
// supply its own interval array in place of a name.
func ExplicitIntervals(intervals []int) []int {
	out := make([]int, len(intervals))
	copy(out, intervals)
	return out
}
