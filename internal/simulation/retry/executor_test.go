package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
)

// =============================================================================
// Fake Responder
// =============================================================================

type scriptedResponder struct {
	calls  atomic.Int32
	errs   []error // error for call i, nil means success
	choice domain.OutcomeChoice
}

func (r *scriptedResponder) Respond(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	i := int(r.calls.Add(1)) - 1
	if i < len(r.errs) && r.errs[i] != nil {
		return domain.SimulationOutcome{}, r.errs[i]
	}
	choice := r.choice
	if choice == "" {
		choice = domain.ChoiceFollowLink
	}
	return domain.SimulationOutcome{Choice: choice, Rationale: "looks useful"}, nil
}

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	r := &scriptedResponder{}
	e := NewExecutor(r, fastPolicy(3), WithRandom(random.NewSeeded(1)))

	out, err := e.Execute(context.Background(), domain.SimulationRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Provenance.Source != domain.SourceAuthentic || out.Provenance.Attempts != 1 {
		t.Errorf("unexpected provenance %+v", out.Provenance)
	}
	if r.calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", r.calls.Load())
	}
}

func TestExecute_RetriesTransientThenSucceeds(t *testing.T) {
	r := &scriptedResponder{errs: []error{
		&StatusError{Code: 429},
		&StatusError{Code: 503},
	}}
	e := NewExecutor(r, fastPolicy(5), WithRandom(random.NewSeeded(1)))

	out, err := e.Execute(context.Background(), domain.SimulationRequest{})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if r.calls.Load() != 3 {
		t.Errorf("expected 3 calls (2 retries), got %d", r.calls.Load())
	}
	if out.Provenance.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", out.Provenance.Attempts)
	}
}

func TestExecute_ExhaustsRetries(t *testing.T) {
	transient := errors.New("connection reset by peer")
	r := &scriptedResponder{errs: []error{transient, transient, transient, transient}}
	e := NewExecutor(r, fastPolicy(3), WithRandom(random.NewSeeded(1)))

	_, err := e.Execute(context.Background(), domain.SimulationRequest{})
	if !errors.Is(err, ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if !errors.Is(err, transient) {
		t.Errorf("expected last error to be wrapped")
	}
	if r.calls.Load() != 3 {
		t.Errorf("expected exactly MaxAttempts calls, got %d", r.calls.Load())
	}
	if AttemptsOf(err) != 3 {
		t.Errorf("AttemptsOf = %d, want 3", AttemptsOf(err))
	}
}

func TestExecute_FatalStopsImmediately(t *testing.T) {
	r := &scriptedResponder{errs: []error{&StatusError{Code: 400, Message: "bad request"}}}
	e := NewExecutor(r, fastPolicy(5))

	_, err := e.Execute(context.Background(), domain.SimulationRequest{})
	if !errors.Is(err, ErrFatalCall) {
		t.Fatalf("expected ErrFatalCall, got %v", err)
	}
	var fatal *FatalCallError
	if !errors.As(err, &fatal) || fatal.Kind != KindClient {
		t.Errorf("expected client kind, got %v", err)
	}
	if r.calls.Load() != 1 {
		t.Errorf("expected no retries, got %d calls", r.calls.Load())
	}
}

func TestExecute_InvalidChoiceIsParseError(t *testing.T) {
	r := &scriptedResponder{choice: "share_with_friend"}
	e := NewExecutor(r, fastPolicy(3))

	_, err := e.Execute(context.Background(), domain.SimulationRequest{})
	var fatal *FatalCallError
	if !errors.As(err, &fatal) || fatal.Kind != KindParse {
		t.Fatalf("expected parse failure, got %v", err)
	}
	if r.calls.Load() != 1 {
		t.Errorf("parse failures must not be retried, got %d calls", r.calls.Load())
	}
}

func TestExecute_CancelDuringBackoff(t *testing.T) {
	r := &scriptedResponder{errs: []error{&StatusError{Code: 500}, &StatusError{Code: 500}}}
	policy := Policy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 2}
	e := NewExecutor(r, policy)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, domain.SimulationRequest{})
	var fatal *FatalCallError
	if !errors.As(err, &fatal) || fatal.Kind != KindCanceled {
		t.Fatalf("expected canceled failure, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("backoff sleep should be interrupted by cancellation")
	}
}

func TestExecute_ConcurrentSleepsDoNotBlockSiblings(t *testing.T) {
	slow := &scriptedResponder{errs: []error{&StatusError{Code: 503}}}
	fast := &scriptedResponder{}
	policy := Policy{MaxAttempts: 2, InitialDelay: 200 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	done := make(chan time.Duration, 1)
	go func() {
		_, _ = NewExecutor(slow, policy).Execute(context.Background(), domain.SimulationRequest{})
	}()
	go func() {
		start := time.Now()
		_, _ = NewExecutor(fast, policy).Execute(context.Background(), domain.SimulationRequest{})
		done <- time.Since(start)
	}()

	if d := <-done; d > 100*time.Millisecond {
		t.Errorf("sibling call blocked for %v", d)
	}
}
