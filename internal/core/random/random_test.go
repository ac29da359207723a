package random

import "testing"

func TestNewSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 10; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v != %v", i, x, y)
		}
	}
}

func TestSequence_Cycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	want := []float64{0.1, 0.9, 0.1}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
	if got := NewSequence(0.99).IntN(4); got != 3 {
		t.Errorf("IntN = %d, want 3", got)
	}
}
