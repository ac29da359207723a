// Package sandbox is an offline stand-in for the generative service. It
// draws choices from a distribution and injects failures at configured
// rates so the resilience paths can be exercised locally.
package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/retry"
)

// Config controls the sandbox responder.
type Config struct {
	Enabled       bool          `yaml:"enabled"`
	FailureRate   float64       `yaml:"failure_rate"`   // Share of calls failing with a retryable error
	PermanentRate float64       `yaml:"permanent_rate"` // Share of calls failing with a permanent error
	Latency       time.Duration `yaml:"latency"`        // Simulated round trip
}

var transientFailures = []*retry.StatusError{
	{Code: http.StatusTooManyRequests, Message: "rate limit exceeded", RetryAfter: 500 * time.Millisecond},
	{Code: http.StatusServiceUnavailable, Message: "service unavailable"},
	{Code: retry.StatusOverloaded, Status: "overloaded", Message: "model overloaded"},
}

var rationales = map[domain.OutcomeChoice]string{
	domain.ChoiceIgnore:        "It does not speak to what I need right now.",
	domain.ChoiceFollowLink:    "The tagline caught my eye, so I want to learn more.",
	domain.ChoiceFollowAndSave: "It looks interesting and I might come back when I have the budget.",
	domain.ChoiceFollowAndBuy:  "It fits my interests and the price feels right.",
}

// Responder implements retry.Responder without network access.
type Responder struct {
	cfg  Config
	dist fallback.Distribution
	rng  random.Source
}

// NewResponder creates a sandbox responder. A nil source uses the global one.
func NewResponder(cfg Config, dist fallback.Distribution, rng random.Source) *Responder {
	if rng == nil {
		rng = random.Global()
	}
	return &Responder{cfg: cfg, dist: dist, rng: rng}
}

// Respond simulates one generative call.
func (r *Responder) Respond(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	if r.cfg.Latency > 0 {
		timer := time.NewTimer(r.cfg.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.SimulationOutcome{}, ctx.Err()
		case <-timer.C:
		}
	}

	roll := r.rng.Float64()
	switch {
	case roll < r.cfg.FailureRate:
		return domain.SimulationOutcome{}, transientFailures[r.rng.IntN(len(transientFailures))]
	case roll < r.cfg.FailureRate+r.cfg.PermanentRate:
		return domain.SimulationOutcome{}, &retry.StatusError{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("request for persona %q rejected", req.Persona.ID),
		}
	}

	choice := r.dist.Choose(r.rng.Float64())
	return domain.SimulationOutcome{Choice: choice, Rationale: rationales[choice]}, nil
}
