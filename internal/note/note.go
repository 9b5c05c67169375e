// Package note implements the note model: note string parsing, chords,
// scales, and the clamped attribute transforms every script relies on for
// chord transpositions.
package note

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel Key values: a Key is either 0..127 or one of these two sentinels.
const (
	KeyRest = -1
	KeyOff  = -2
)

// NoteEvent is one voice of a (possibly polyphonic) Note. Volume, Panning,
// and Delay are always held in their clamped legal ranges; Instrument is nil
// when unspecified.
type NoteEvent struct {
	Key        int
	Instrument *int
	Volume     float64
	Panning    float64
	Delay      float64
}

// DefaultNoteEvent is the zero-config note: full volume (1.0), centered
// pan, no delay, no instrument override.
func DefaultNoteEvent(key int) NoteEvent {
	return NoteEvent{Key: clampKey(key), Volume: 1.0, Panning: 0.0, Delay: 0.0}
}

func clampKey(k int) int {
	if k == KeyRest || k == KeyOff {
		return k
	}
	if k < 0 {
		return 0
	}
	if k > 127 {
		return 127
	}
	return k
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Note is an ordered sequence of NoteEvent: a monophonic note is a
// single-element Note, a chord is a multi-element Note.
type Note []NoteEvent

// Transposed returns a copy of n with every (non-rest, non-off) key shifted
// by delta semitones, clamped to [0,127].
func (n Note) Transposed(delta int) Note {
	out := make(Note, len(n))
	for i, ev := range n {
		out[i] = ev
		if ev.Key != KeyRest && ev.Key != KeyOff {
			out[i].Key = clampKey(ev.Key + delta)
		}
	}
	return out
}

// Amplified returns a copy of n with every volume multiplied by factor and
// clamped to [0,1]. Volumes multiply, never add.
func (n Note) Amplified(factor float64) Note {
	out := make(Note, len(n))
	for i, ev := range n {
		out[i] = ev
		out[i].Volume = clamp(ev.Volume*factor, 0, 1)
	}
	return out
}

// WithVolume returns a copy of n with every volume set to v, clamped.
func (n Note) WithVolume(v float64) Note {
	out := make(Note, len(n))
	for i, ev := range n {
		out[i] = ev
		out[i].Volume = clamp(v, 0, 1)
	}
	return out
}

// WithInstrument returns a copy of n with every event's instrument set to i.
func (n Note) WithInstrument(i int) Note {
	out := make(Note, len(n))
	for idx, ev := range n {
		out[idx] = ev
		v := i
		out[idx].Instrument = &v
	}
	return out
}

// WithPanning returns a copy of n with every panning set to p, clamped to
// [-1,1].
func (n Note) WithPanning(p float64) Note {
	out := make(Note, len(n))
	for i, ev := range n {
		out[i] = ev
		out[i].Panning = clamp(p, -1, 1)
	}
	return out
}

// WithDelay returns a copy of n with every delay set to d, clamped to [0,1].
func (n Note) WithDelay(d float64) Note {
	out := make(Note, len(n))
	for i, ev := range n {
		out[i] = ev
		out[i].Delay = clamp(d, 0, 1)
	}
	return out
}

// ParseError reports a malformed note string, with the source text kept
// for full context.
type ParseError struct {
	Source string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("note: invalid note string %q: %s", e.Source, e.Msg)
}

var noteStringRe = regexp.MustCompile(
	`^([a-gA-G][#b]?[0-9]|off|~|-)?('[a-zA-Z0-9#+^-]+)?((?:\s+(?:#\d+|v[0-9.]+|p-?[0-9.]+|d[0-9.]+))*)$`,
)

var pitchClass = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// Parse parses a note string of the form:
//
//	{key}['{chord_mode}] {attr}*
//
// key is [a-gA-G][#b]?[0-9], ~/-/empty for a rest, or off for a note-off
// (KeyOff). Attributes are
// #N (instrument), vX (volume), pX (pan), dX (delay), any order,
// whitespace-separated. A 'chord_mode suffix expands the key into a chord
// via the chord table (see chord.go).
func Parse(s string) (Note, error) {
	s = strings.TrimSpace(s)
	m := noteStringRe.FindStringSubmatch(s)
	if m == nil {
		return nil, &ParseError{Source: s, Msg: "does not match note grammar"}
	}

	keyPart, chordPart, attrPart := m[1], m[2], m[3]

	var baseKey int
	switch {
	case keyPart == "" || keyPart == "~" || keyPart == "-":
		baseKey = KeyRest
	case keyPart == "off":
		baseKey = KeyOff
	default:
		key, err := parseKey(keyPart)
		if err != nil {
			return nil, &ParseError{Source: s, Msg: err.Error()}
		}
		baseKey = key
	}

	var intervals []int
	if chordPart != "" {
		name := strings.TrimPrefix(chordPart, "'")
		ivs, ok := ChordIntervals(name)
		if !ok {
			return nil, &ParseError{Source: s, Msg: fmt.Sprintf("unknown chord mode %q", name)}
		}
		intervals = ivs
	} else {
		intervals = []int{0}
	}

	ev := DefaultNoteEvent(baseKey)
	for _, tok := range strings.Fields(attrPart) {
		if err := applyAttr(&ev, tok); err != nil {
			return nil, &ParseError{Source: s, Msg: err.Error()}
		}
	}

	if baseKey == KeyRest || baseKey == KeyOff {
		return Note{ev}, nil
	}

	out := make(Note, len(intervals))
	for i, iv := range intervals {
		e := ev
		e.Key = clampKey(baseKey + iv)
		out[i] = e
	}
	return out, nil
}

func parseKey(s string) (int, error) {
	lower := strings.ToLower(s)
	pc, ok := pitchClass[lower[0]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch letter %q", s[:1])
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
		return 0, fmt.Errorf("invalid octave in %q", s)
	}
	return clampKey((octave+1)*12 + pc), nil
}

func applyAttr(ev *NoteEvent, tok string) error {
	if len(tok) < 2 {
		return fmt.Errorf("invalid attribute %q", tok)
	}
	switch tok[0] {
	case '#':
		n, err := strconv.Atoi(tok[1:])
		if err != nil {
			return fmt.Errorf("invalid instrument %q", tok)
		}
		ev.Instrument = &n
	case 'v':
		f, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q", tok)
		}
		ev.Volume = clamp(f, 0, 1)
	case 'p':
		f, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			return fmt.Errorf("invalid pan %q", tok)
		}
		ev.Panning = clamp(f, -1, 1)
	case 'd':
		f, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			return fmt.Errorf("invalid delay %q", tok)
		}
		ev.Delay = clamp(f, 0, 1)
	default:
		return fmt.Errorf("unknown attribute %q", tok)
	}
	return nil
}
