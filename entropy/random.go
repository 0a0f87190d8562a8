// Package entropy provides the injected randomness every stochastic decision
// draws from. Nothing in the simulation reads ambient global state: a game
// owns one Source, and replaying its seed replays every roll.
package entropy

import (
	"io"
	"math/rand"
)

// Source is the randomness handle passed into decisions, scar rolls and
// record ID generation.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n <= 0 returns 0.
	Intn(n int) int
	io.Reader
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	seed int64
	rng  *rand.Rand
}

// NewSeeded creates a Source whose sequence is fully determined by seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() int64 { return s.seed }

func (s *Seeded) Float64() float64 { return s.rng.Float64() }

func (s *Seeded) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

func (s *Seeded) Read(p []byte) (int, error) { return s.rng.Read(p) }

// Fork derives an independent child source. Used to give each game its own
// stream from a single master seed.
func (s *Seeded) Fork() *Seeded {
	return NewSeeded(s.rng.Int63())
}

// Scripted replays a fixed list of floats, then repeats the last one. It lets
// tests force a roll above or below a probability.
type Scripted struct {
	floats []float64
	pos    int
	reads  uint64
}

// NewScripted creates a Source returning floats in order. With no floats it
// always returns 0.
func NewScripted(floats ...float64) *Scripted {
	return &Scripted{floats: floats}
}

func (s *Scripted) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	if s.pos >= len(s.floats) {
		return s.floats[len(s.floats)-1]
	}
	v := s.floats[s.pos]
	s.pos++
	return v
}

// Intn scales the next scripted float into [0, n).
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Read writes a per-call counter into the tail of p so generated IDs stay
// unique and ordered.
func (s *Scripted) Read(p []byte) (int, error) {
	s.reads++
	clear(p)
	n := s.reads
	for i := len(p) - 1; i >= 0 && n > 0; i-- {
		p[i] = byte(n)
		n >>= 8
	}
	return len(p), nil
}
