package note

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// scaleModes maps a mode name to its ascending semitone intervals from the
// root, normalized to 7 or fewer pitch classes.
var scaleModes = map[string][]int{
	"major":           {0, 2, 4, 5, 7, 9, 11},
	"ionian":          {0, 2, 4, 5, 7, 9, 11},
	"minor":           {0, 2, 3, 5, 7, 8, 10},
	"aeolian":         {0, 2, 3, 5, 7, 8, 10},
	"dorian":          {0, 2, 3, 5, 7, 9, 10},
	"phrygian":        {0, 1, 3, 5, 7, 8, 10},
	"lydian":          {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":      {0, 2, 4, 5, 7, 9, 10},
	"locrian":         {0, 1, 3, 5, 6, 8, 10},
	"harmonic_minor":  {0, 2, 3, 5, 7, 8, 11},
	"melodic_minor":   {0, 2, 3, 5, 7, 9, 11},
	"pentatonic_major": {0, 2, 4, 7, 9},
	"pentatonic_minor": {0, 3, 5, 7, 10},
	"blues":           {0, 3, 5, 6, 7, 10},
}

var romanDegree = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5, "vi": 6, "vii": 7,
}

// Scale is a normalized interval list rooted at a MIDI key.
//
// Scale's root-key parsing uses the octave*12 convention (root("c4") == 48),
// grounded on chord_to_midi.go's noteToMIDI — distinct from Parse's
// (octave+1)*12 convention (root("c4") == 60) grounded on that same file's
// NoteNameToMIDI. The teacher carries both conventions side by side for
// different call sites; this module preserves that split rather than
// silently picking one, since scale degree resolution and note-string
// parsing are independent call sites that each need to match their own
// convention.
type Scale struct {
	Root      int
	Intervals []int
}

// NewScale builds a Scale from a root key string and either a named mode or
// an explicit ascending interval list.
func NewScale(key string, mode string, explicit []int) (*Scale, error) {
	root, err := parseScaleRoot(key)
	if err != nil {
		return nil, err
	}

	var intervals []int
	if len(explicit) > 0 {
		intervals = ExplicitIntervals(explicit)
	} else {
		ivs, ok := scaleModes[strings.ToLower(mode)]
		if !ok {
			return nil, fmt.Errorf("note: unknown scale mode %q", mode)
		}
		intervals = append([]int{}, ivs...)
	}

	return &Scale{Root: root, Intervals: intervals}, nil
}

func parseScaleRoot(key string) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, fmt.Errorf("note: empty scale key")
	}
	lower := strings.ToLower(key)
	pc, ok := pitchClass[lower[0]]
	if !ok {
		return 0, fmt.Errorf("note: invalid scale root letter %q", key[:1])
	}
	idx := 1
	if idx < len(lower) && (lower[idx] == '#' || lower[idx] == 'b') {
		if lower[idx] == '#' {
			pc++
		} else {
			pc--
		}
		idx++
	}
	octave, err := strconv.Atoi(lower[idx:])
	if err != nil {
		return 0, fmt.Errorf("note: invalid octave in scale key %q", key)
	}
	return clampKey(octave*12 + pc), nil
}

// Notes returns the scale's pitch classes ascending from the root, one
// octave's worth (len(Intervals) entries).
func (s *Scale) Notes() []int {
	out := make([]int, len(s.Intervals))
	for i, iv := range s.Intervals {
		out[i] = clampKey(s.Root + iv)
	}
	return out
}

// Degree resolves a 1-based scale degree — a plain integer string ("1") or
// a roman numeral ("i".."vii", case-insensitive) — to a MIDI key, spilling
// into higher octaves past the last interval.
func (s *Scale) Degree(degree string) (int, error) {
	d, err := parseDegree(degree)
	if err != nil {
		return 0, err
	}
	return s.degreeIndex(d), nil
}

func parseDegree(degree string) (int, error) {
	if n, err := strconv.Atoi(degree); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("note: degree must be >= 1, got %d", n)
		}
		return n, nil
	}
	if n, ok := romanDegree[strings.ToLower(degree)]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("note: invalid scale degree %q", degree)
}

func (s *Scale) degreeIndex(d int) int {
	n := len(s.Intervals)
	zero := d - 1
	octave := zero / n
	idx := zero % n
	return clampKey(s.Root + s.Intervals[idx] + 12*octave)
}

// Chord builds a tertian chord starting at degree: every second scale
// degree, count notes.
func (s *Scale) Chord(degree string, count int) ([]int, error) {
	if count <= 0 {
		count = 3
	}
	d, err := parseDegree(degree)
	if err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = s.degreeIndex(d + 2*i)
	}
	return out, nil
}

// NotesIter returns a finite sequence of count ascending scale degrees
// starting at degree 1, spilling into higher octaves once the interval
// list is exhausted.
func (s *Scale) NotesIter(count int) []int {
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = s.degreeIndex(i + 1)
	}
	return out
}

// Fit snaps each value to the nearest in-scale pitch: no in-scale pitch
// lies strictly between x and the result.
func (s *Scale) Fit(values ...int) []int {
	candidates := s.allPitches(-2, 10)

	out := make([]int, len(values))
	for i, x := range values {
		out[i] = nearest(candidates, x)
	}
	return out
}

func (s *Scale) allPitches(loOctave, hiOctave int) []int {
	var out []int
	for oct := loOctave; oct <= hiOctave; oct++ {
		for _, iv := range s.Intervals {
			p := s.Root + iv + 12*oct
			if p >= 0 && p <= 127 {
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out
}

func nearest(sorted []int, x int) int {
	if len(sorted) == 0 {
		return clampKey(x)
	}
	i := sort.SearchInts(sorted, x)
	if i == 0 {
		return sorted[0]
	}
	if i >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	before, after := sorted[i-1], sorted[i]
	if x-before <= after-x {
		return before
	}
	return after
}
