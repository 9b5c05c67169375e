// Package cycle implements the Tidal-cycles-flavored mini-notation
// language: tokenizer, recursive-descent parser, and a time-normalized
// evaluator that turns one parsed channel into a flat list of steps
// spanning a single cycle.
package cycle

import (
	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/Conceptual-Machines/rhythmforge/internal/rng"
)

// Step is one scheduled (or rested) slot within a cycle, expressed as a
// fraction of the cycle's total duration so the rhythm engine can map it
// onto any TimeBase.
type Step struct {
	Start  float64 // in [0, 1)
	Length float64 // > 0, Start+Length <= 1 for a well-formed evaluation
	Token  string
	Rest   bool
	Attrs  []string
}

// MapFn translates an atom's raw token text before it becomes a Step. It is
// a plain token-to-token function: a lookup table has to be wrapped in one,
// and the function receives no mapping context and cannot return a
// per-emission generator.
type MapFn func(token string) string

// Evaluator walks one or more parsed channels cycle by cycle, keeping the
// per-node counters that make alternation (<...>) advance across repeated
// Emit calls. Slowdown (/n) keeps no state; it is decided by the cycle
// index passed to Emit.
type Evaluator struct {
	channels []*node
	mapFn    MapFn
	rng      *rng.Source

	altCounters map[int]int
}

// NewEvaluator builds an Evaluator over the channels returned by Parse.
// seed drives the random choice operator (a|b|c) deterministically.
func NewEvaluator(channels []*node, seed uint64) *Evaluator {
	return &Evaluator{
		channels:    channels,
		rng:         rng.New(seed),
		altCounters: make(map[int]int),
	}
}

// Map installs a token-translation function applied to every atom before
// it is emitted as a Step.
func (e *Evaluator) Map(fn MapFn) { e.mapFn = fn }

// Emit evaluates every channel for the given 0-based cycle index, returning
// one ordered step list per channel. Rests fill any slot a Euclidean or
// slowdown operator does not sound, so a channel's step lengths sum to
// exactly 1 unless it contains a nested ',' stack: each child of a nested
// stack spans the stack's full slot, and their steps are all appended to
// the same channel list.
func (e *Evaluator) Emit(cycleIndex uint64) [][]Step {
	out := make([][]Step, len(e.channels))
	for i, root := range e.channels {
		var steps []Step
		e.evalNode(root, cycleIndex, 0, 1, &steps)
		out[i] = steps
	}
	return out
}

func (e *Evaluator) evalNode(n *node, cycleIndex uint64, start, span float64, out *[]Step) {
	if span <= 0 {
		return
	}
	switch n.kind {
	case nodeRest:
		*out = append(*out, Step{Start: start, Length: span, Rest: true})

	case nodeAtom:
		text := n.token
		if e.mapFn != nil {
			text = e.mapFn(text)
		}
		*out = append(*out, Step{Start: start, Length: span, Token: text})

	case nodeGroup:
		if len(n.children) == 0 {
			*out = append(*out, Step{Start: start, Length: span, Rest: true})
			return
		}
		total := totalWeight(n.children)
		cursor := start
		for _, c := range n.children {
			w := c.weight
			if w == 0 {
				w = 1
			}
			childSpan := span * float64(w) / float64(total)
			e.evalNode(c, cycleIndex, cursor, childSpan, out)
			cursor += childSpan
		}

	case nodeStack:
		for _, c := range n.children {
			e.evalNode(c, cycleIndex, start, span, out)
		}

	case nodeAlt:
		if len(n.children) == 0 {
			return
		}
		idx := e.altCounters[n.id] % len(n.children)
		e.altCounters[n.id]++
		e.evalNode(n.children[idx], cycleIndex, start, span, out)

	case nodeChoice:
		if len(n.children) == 0 {
			return
		}
		idx := e.rng.Intn(len(n.children)) - 1
		e.evalNode(n.children[idx], cycleIndex, start, span, out)

	case nodeFast:
		factor := n.factor
		if factor <= 0 {
			factor = 1
		}
		childSpan := span / float64(factor)
		for i := 0; i < factor; i++ {
			e.evalNode(n.child, cycleIndex, start+float64(i)*childSpan, childSpan, out)
		}

	case nodeSlow:
		factor := n.factor
		if factor <= 0 {
			factor = 1
		}
		if uint64(cycleIndex)%uint64(factor) == 0 {
			e.evalNode(n.child, cycleIndex, start, span, out)
		} else {
			*out = append(*out, Step{Start: start, Length: span, Rest: true})
		}

	case nodeEuclid:
		steps := n.steps
		if steps <= 0 {
			*out = append(*out, Step{Start: start, Length: span, Rest: true})
			return
		}
		pattern := pulse.Euclidean(n.pulses, n.steps, n.rotate, 0)
		childSpan := span / float64(steps)
		for i, p := range pattern {
			slotStart := start + float64(i)*childSpan
			if p.Value() > 0 {
				e.evalNode(n.child, cycleIndex, slotStart, childSpan, out)
			} else {
				*out = append(*out, Step{Start: slotStart, Length: childSpan, Rest: true})
			}
		}

	case nodeAttrited:
		var tmp []Step
		e.evalNode(n.child, cycleIndex, start, span, &tmp)
		texts := make([]string, len(n.attrs))
		for i, a := range n.attrs {
			texts[i] = a.text
		}
		for _, s := range tmp {
			s.Attrs = append(append([]string{}, texts...), s.Attrs...)
			*out = append(*out, s)
		}
	}
}
