// Package rng implements the deterministic pseudo-random substrate: a seeded
// xoshiro256++ generator with a process-wide global instance and a factory
// for independent local streams. Two processes seeded identically produce
// bit-identical sequences on any platform.
package rng

import (
	"math/bits"
	"sync"
	"time"
)

// Source is one xoshiro256++ stream. The zero value is not usable; build one
// with New or Local(...).
type Source struct {
	mu    sync.Mutex
	state [4]uint64
}

// New creates an independently-seeded stream. Two Sources built from the same
// seed produce identical output sequences regardless of platform.
func New(seed uint64) *Source {
	s := &Source{}
	s.Reseed(seed)
	return s
}

// splitmix64 expands a single 64-bit seed into the 256 bits of xoshiro state,
// the standard way to initialize xoshiro-family generators from one seed.
func splitmix64(x uint64) func() uint64 {
	return func() uint64 {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
}

// Reseed resets the stream deterministically from seed. Any local streams
// already created via Local are unaffected — they snapshot their own state at
// creation time and never re-read the source they were derived from.
func (s *Source) Reseed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := splitmix64(seed)
	s.state = [4]uint64{next(), next(), next(), next()}
}

func rotl(x uint64, k int) uint64 {
	return bits.RotateLeft64(x, k)
}

// next advances the xoshiro256++ state and returns the next 64-bit output.
func (s *Source) next() uint64 {
	result := rotl(s.state[0]+s.state[3], 23) + s.state[0]

	t := s.state[1] << 17

	s.state[2] ^= s.state[0]
	s.state[3] ^= s.state[1]
	s.state[1] ^= s.state[2]
	s.state[0] ^= s.state[3]

	s.state[2] ^= t

	s.state[3] = rotl(s.state[3], 45)

	return result
}

// Uint64 returns the next raw 64-bit output.
func (s *Source) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next()
}

// Float64 returns a uniform real in [0, 1).
func (s *Source) Float64() float64 {
	// top 53 bits give a uniformly distributed double, the usual xoshiro recipe.
	return float64(s.Uint64()>>11) * (1.0 / (1 << 53))
}

// Intn returns a uniform integer in [1, n]. Panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn requires n > 0")
	}
	return 1 + int(s.Float64()*float64(n))
}

// IntRange returns a uniform integer in [m, n] inclusive. Panics if n < m.
func (s *Source) IntRange(m, n int) int {
	if n < m {
		panic("rng: IntRange requires n >= m")
	}
	span := n - m + 1
	return m + int(s.Float64()*float64(span))
}

// jumpPoly is xoshiro256++'s standard jump polynomial: equivalent to 2^128
// calls to next(), used to carve a non-overlapping substream out of the
// current state.
var jumpPoly = [4]uint64{
	0x180ec6d33cfd0aba, 0xd5a61266f0c9392c,
	0xa9582618e03fc9aa, 0x39abdc4529b1661c,
}

// Jump derives a fresh, independent stream from s's current state (s's state
// advanced by 2^128 steps). Computing it advances s itself by 256 steps, so
// successive Jumps from the same Source yield distinct streams. Used by
// Local to branch local RNGs off of the global stream.
func (s *Source) Jump() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	var s0, s1, s2, s3 uint64
	for i := 0; i < 4; i++ {
		for b := 0; b < 64; b++ {
			if jumpPoly[i]&(uint64(1)<<uint(b)) != 0 {
				s0 ^= s.state[0]
				s1 ^= s.state[1]
				s2 ^= s.state[2]
				s3 ^= s.state[3]
			}
			s.next()
		}
	}

	branched := &Source{state: [4]uint64{s0, s1, s2, s3}}
	if branched.state == [4]uint64{} {
		// Never hand out the all-zero xoshiro state; fold in a constant.
		branched.Reseed(0x9E3779B97F4A7C15)
	}
	return branched
}

// snapshot copies the current state without disturbing s.
func (s *Source) snapshot() [4]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

var global = func() *Source {
	// Self-seed once from wall-clock entropy; a caller who wants
	// reproducibility calls Global().Reseed(seed) before using it.
	return New(uint64(time.Now().UnixNano()))
}()

// Global returns the process-wide RNG instance. The host is expected to
// override the script language's default RNG with this one so every
// stochastic operation in a script traces back to one seed.
func Global() *Source {
	return global
}

// Local creates an independent stream captured by closure. If seed is not
// given, the new stream is derived (via Jump) from the global stream's
// current state — so a later Reseed of the global affects only locals
// created afterward, never ones already captured. Local RNGs must be built
// inside generator-construction callbacks so that a rhythm reset re-invokes
// the factory and restores determinism.
func Local(seed ...uint64) *Source {
	if len(seed) > 0 {
		return New(seed[0])
	}
	return global.Jump()
}
