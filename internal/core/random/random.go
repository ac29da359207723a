// Package random provides the random sources used by backoff jitter,
// fallback sampling and persona generation.
package random

import (
	"math/rand/v2"
	"sync"
)

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// Global returns the process-wide source. Safe for concurrent use.
func Global() Source {
	return globalSource{}
}

// lockedSource serializes access to a seeded generator so it can be shared
// by concurrent calls in the same window.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic, goroutine-safe source.
func NewSeeded(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Sequence replays fixed values. Used to drive exact branches in tests.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequence returns a Source cycling through values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

func (s *Sequence) IntN(n int) int {
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
