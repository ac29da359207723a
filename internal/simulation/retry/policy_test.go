package retry

import (
	"testing"
	"time"

	"github.com/vietddude/adsim/internal/core/random"
)

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
		ok     bool
	}{
		{"default", func(p *Policy) {}, true},
		{"zero attempts", func(p *Policy) { p.MaxAttempts = 0 }, false},
		{"factor one", func(p *Policy) { p.BackoffFactor = 1 }, false},
		{"no initial delay", func(p *Policy) { p.InitialDelay = 0 }, false},
		{"max below initial", func(p *Policy) { p.MaxDelay = p.InitialDelay / 2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy
			tt.mutate(&p)
			if err := p.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestPolicy_BaseDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	// Attempt 0: 1s, 1: 2s, 2: 4s, 3: 8s, 4: cap at 10s
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for attempt, w := range want {
		if d := p.BaseDelay(attempt); d != w {
			t.Errorf("BaseDelay(%d) = %v, want %v", attempt, d, w)
		}
	}
	if d := p.BaseDelay(5000); d != p.MaxDelay {
		t.Errorf("huge attempt should cap at MaxDelay, got %v", d)
	}
	if d := p.BaseDelay(-1); d != time.Second {
		t.Errorf("negative attempt should behave as 0, got %v", d)
	}
}

func TestDelay_JitterBounds(t *testing.T) {
	p := Policy{MaxAttempts: 8, InitialDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	src := random.NewSeeded(7)

	for attempt := 0; attempt < 8; attempt++ {
		floor := p.BaseDelay(attempt) / 2
		for i := 0; i < 500; i++ {
			d := Delay(attempt, p, src)
			if d > p.MaxDelay {
				t.Fatalf("Delay(%d) = %v exceeds MaxDelay %v", attempt, d, p.MaxDelay)
			}
			if d < floor {
				t.Fatalf("Delay(%d) = %v below jitter floor %v", attempt, d, floor)
			}
		}
	}
}

func TestDelay_ExactJitterFactor(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	// r=0 gives the 0.5 floor, r=0.5 gives the base delay.
	if d := Delay(1, p, random.NewSequence(0)); d != time.Second {
		t.Errorf("floor jitter = %v, want 1s", d)
	}
	if d := Delay(1, p, random.NewSequence(0.5)); d != 2*time.Second {
		t.Errorf("mid jitter = %v, want 2s", d)
	}
	// 8s * 1.49 exceeds the cap.
	if d := Delay(3, p, random.NewSequence(0.99)); d != 10*time.Second {
		t.Errorf("capped jitter = %v, want 10s", d)
	}
}

func TestDelay_NonDecreasingInExpectation(t *testing.T) {
	p := Policy{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: 3 * time.Second, BackoffFactor: 1.7}
	const samples = 4000

	prev := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		src := random.NewSeeded(uint64(attempt + 1))
		var total time.Duration
		for i := 0; i < samples; i++ {
			total += Delay(attempt, p, src)
		}
		mean := total / samples
		// Allow 3% sampling noise once the cap flattens the curve.
		if float64(mean) < float64(prev)*0.97 {
			t.Errorf("mean delay decreased at attempt %d: %v < %v", attempt, mean, prev)
		}
		if mean > prev {
			prev = mean
		}
	}
}
