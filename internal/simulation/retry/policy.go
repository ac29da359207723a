package retry

import (
	"errors"
	"math"
	"time"

	"github.com/vietddude/adsim/internal/core/random"
)

// Policy defines retry behavior. It is built once and shared read-only.
type Policy struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// DefaultPolicy provides sensible defaults.
var DefaultPolicy = Policy{
	MaxAttempts:   3,
	InitialDelay:  1 * time.Second,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return errors.New("retry: max_attempts must be at least 1")
	case p.InitialDelay <= 0:
		return errors.New("retry: initial_delay must be positive")
	case p.MaxDelay < p.InitialDelay:
		return errors.New("retry: max_delay must not be below initial_delay")
	case p.BackoffFactor <= 1:
		return errors.New("retry: backoff_factor must be greater than 1")
	}
	return nil
}

// BaseDelay is the un-jittered delay: min(MaxDelay, InitialDelay * BackoffFactor^attempt).
func (p Policy) BaseDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt))
	if delay > float64(p.MaxDelay) || math.IsInf(delay, 1) || math.IsNaN(delay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Delay returns the jittered backoff for a 0-indexed attempt.
//
// The base delay is scaled by a factor drawn uniformly from [0.5, 1.5) and
// clamped to MaxDelay, so the result lies in [BaseDelay/2, MaxDelay].
func Delay(attempt int, p Policy, src random.Source) time.Duration {
	base := float64(p.BaseDelay(attempt))
	jitter := 0.5 + src.Float64()
	delay := base * jitter
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}
