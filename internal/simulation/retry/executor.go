package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
	"github.com/vietddude/adsim/internal/simulation/metrics"
)

// Responder is the external generative call: one persona reaction per call.
type Responder interface {
	Respond(ctx context.Context, req domain.SimulationRequest) (domain.SimulationOutcome, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req domain.SimulationRequest) (domain.SimulationOutcome, error)

func (f ResponderFunc) Respond(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	return f(ctx, req)
}

// Executor runs one unit of work with bounded retries and jittered backoff.
type Executor struct {
	responder Responder
	policy    Policy
	rng       random.Source
	log       *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithRandom sets the jitter source.
func WithRandom(src random.Source) Option {
	return func(e *Executor) { e.rng = src }
}

// WithLogger sets the logger used for attempt logs.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// NewExecutor creates an executor around the external responder.
func NewExecutor(responder Responder, policy Policy, opts ...Option) *Executor {
	e := &Executor{
		responder: responder,
		policy:    policy,
		rng:       random.Global(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy.MaxAttempts < 1 {
		e.policy.MaxAttempts = 1
	}
	return e
}

// Policy returns the retry policy in use.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs the unit until it succeeds, hits a non-retryable error or
// exhausts MaxAttempts. Terminal errors are *FatalCallError or
// *ExhaustedRetriesError. Backoff sleeps only block the calling goroutine.
func (e *Executor) Execute(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	var lastErr error
	var lastKind ErrorKind

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.SimulationOutcome{}, &FatalCallError{Attempts: attempt, Kind: KindCanceled, Err: err}
		}

		start := time.Now()
		outcome, err := e.responder.Respond(ctx, req)
		metrics.ExternalLatency.Observe(time.Since(start).Seconds())
		if err == nil && !outcome.Choice.Valid() {
			err = &ResponseParseError{Err: fmt.Errorf("invalid outcome choice %q", outcome.Choice)}
		}

		if err == nil {
			metrics.ExternalAttemptsTotal.WithLabelValues("success").Inc()
			outcome.Provenance = domain.Provenance{
				Source:   domain.SourceAuthentic,
				Attempts: attempt + 1,
			}
			return outcome, nil
		}

		lastErr = err
		lastKind = Classify(err)
		if ctx.Err() != nil {
			lastKind = KindCanceled
		}
		metrics.ExternalAttemptsTotal.WithLabelValues(lastKind.String()).Inc()

		e.log.Debug("External call attempt failed",
			"attempt", attempt,
			"kind", lastKind.String(),
			"error", err,
		)

		if !lastKind.Retryable() {
			e.log.Warn("External call failed with non-retryable error",
				"attempt", attempt,
				"kind", lastKind.String(),
				"error", err,
			)
			return domain.SimulationOutcome{}, &FatalCallError{Attempts: attempt + 1, Kind: lastKind, Err: err}
		}

		if attempt == e.policy.MaxAttempts-1 {
			break
		}

		delay := Delay(attempt, e.policy, e.rng)
		if hint := RetryHint(err); hint > delay {
			delay = min(hint, e.policy.MaxDelay)
		}
		metrics.ExternalRetriesTotal.Inc()

		select {
		case <-ctx.Done():
			return domain.SimulationOutcome{}, &FatalCallError{Attempts: attempt + 1, Kind: KindCanceled, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	e.log.Warn("External call exhausted retries",
		"attempts", e.policy.MaxAttempts,
		"kind", lastKind.String(),
		"error", lastErr,
	)
	return domain.SimulationOutcome{}, &ExhaustedRetriesError{
		Attempts: e.policy.MaxAttempts,
		Kind:     lastKind,
		Last:     lastErr,
	}
}
