// Package batch drives many independent simulation calls to completion.
//
// Work is split into windows of bounded width. Every window is a barrier:
// all of its units settle before the next window starts. Failed units are
// backfilled with synthetic outcomes, and sustained failure halves the
// window width and re-attempts failed units one at a time. A run always
// returns exactly the requested number of outcomes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/metrics"
	"github.com/vietddude/adsim/internal/simulation/retry"
	"github.com/vietddude/adsim/internal/simulation/throttle"
)

// UnitExecutor runs one unit of work with its own retry loop.
type UnitExecutor interface {
	Execute(ctx context.Context, req domain.SimulationRequest) (domain.SimulationOutcome, error)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// WindowReport describes one settled window.
type WindowReport struct {
	Index     int
	Size      int
	Width     int
	Successes int
	Failures  int
	Recovered int // failed units that succeeded in degraded-retry mode
	Result    throttle.WindowResult
	Degraded  bool
	Cancelled bool
}

// Report summarizes a batch run for observability.
type Report struct {
	BatchID    string
	Requested  int
	Windows    []WindowReport
	Attempts   int
	Retries    int
	Authentic  int
	Synthetic  int
	FinalWidth int
	Cancelled  bool
	Duration   time.Duration
}

// SyntheticRatio is the share of outcomes produced by the fallback path.
func (r Report) SyntheticRatio() float64 {
	if r.Requested == 0 {
		return 0
	}
	return float64(r.Synthetic) / float64(r.Requested)
}

// Orchestrator runs batches. It is safe for concurrent use; each run owns
// its own RunState.
type Orchestrator struct {
	executor UnitExecutor
	synth    *fallback.Synthesizer
	ctrl     *throttle.WindowController
	maxCount int
	sleep    SleepFunc
	observer func(Report)
	log      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleep replaces the cool-down sleep.
func WithSleep(fn SleepFunc) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithObserver registers a callback invoked with every finished report.
func WithObserver(fn func(Report)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(
	executor UnitExecutor,
	synth *fallback.Synthesizer,
	cfg Config,
	opts ...Option,
) *Orchestrator {
	if cfg.MaxCount < 1 {
		cfg.MaxCount = DefaultMaxCount
	}
	o := &Orchestrator{
		executor: executor,
		synth:    synth,
		ctrl:     throttle.NewWindowController(cfg.Config),
		maxCount: cfg.MaxCount,
		sleep:    sleepContext,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MaxCount is the largest count Run accepts.
func (o *Orchestrator) MaxCount() int {
	return o.maxCount
}

// ValidateCount checks a requested batch size.
func (o *Orchestrator) ValidateCount(count int) error {
	if count < 1 || count > o.maxCount {
		return &domain.ValidationError{
			Field:  "count",
			Reason: fmt.Sprintf("must be between 1 and %d", o.maxCount),
		}
	}
	return nil
}

// Run returns exactly count outcomes. It never fails: units that cannot be
// completed are replaced by synthetic outcomes. Cancelling ctx stops new
// external calls and backfills whatever is still unresolved.
func (o *Orchestrator) Run(
	ctx context.Context,
	req domain.SimulationRequest,
	count int,
) []domain.SimulationOutcome {
	outcomes, _ := o.RunWithReport(ctx, req, count)
	return outcomes
}

// RunWithReport is Run plus a report of how the batch went.
func (o *Orchestrator) RunWithReport(
	ctx context.Context,
	req domain.SimulationRequest,
	count int,
) ([]domain.SimulationOutcome, Report) {
	start := time.Now()
	state := NewRunState(count, o.ctrl.InitialWidth())
	report := Report{
		BatchID:   uuid.NewString(),
		Requested: state.Requested,
	}
	log := o.log.With("batch_id", report.BatchID)
	log.Debug("Batch started", "count", state.Requested, "width", state.Width)

	for !state.Done() {
		if ctx.Err() != nil {
			o.backfillRemaining(state, &report)
			log.Warn("Batch cancelled, backfilled remaining units",
				"synthetic", report.Synthetic,
				"error", ctx.Err(),
			)
			break
		}

		window := o.runWindow(ctx, req, state, &report)
		report.Windows = append(report.Windows, window)

		if !state.Done() {
			_ = o.sleep(ctx, o.ctrl.CoolDownAfter(window.Result, window.Degraded))
		}
	}

	report.FinalWidth = state.Width
	report.Duration = time.Since(start)
	metrics.BatchDuration.Observe(report.Duration.Seconds())

	log.Info("Batch completed",
		"count", report.Requested,
		"authentic", report.Authentic,
		"synthetic", report.Synthetic,
		"windows", len(report.Windows),
		"final_width", report.FinalWidth,
		"duration", report.Duration,
	)
	if o.observer != nil {
		o.observer(report)
	}
	return state.Collected, report
}

type unitResult struct {
	outcome domain.SimulationOutcome
	err     error
}

// runWindow dispatches one window, waits for every unit, then resolves failures.
func (o *Orchestrator) runWindow(
	ctx context.Context,
	req domain.SimulationRequest,
	state *RunState,
	report *Report,
) WindowReport {
	size := state.NextWindowSize()
	window := WindowReport{
		Index: len(report.Windows),
		Size:  size,
		Width: state.Width,
	}
	metrics.WindowWidth.Set(float64(state.Width))

	results := make([]unitResult, size)
	var g errgroup.Group
	g.SetLimit(state.Width)
	for i := range size {
		g.Go(func() error {
			out, err := o.executor.Execute(ctx, req)
			results[i] = unitResult{outcome: out, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var failed []unitResult
	for _, r := range results {
		o.countAttempts(r, report)
		if r.err != nil {
			failed = append(failed, r)
			continue
		}
		o.collectAuthentic(state, report, r.outcome)
	}

	window.Failures = len(failed)
	window.Successes = size - len(failed)
	window.Result = throttle.Classify(window.Successes, window.Failures)

	// A cancelled window leaves the failure streak and width untouched.
	if len(failed) > 0 && ctx.Err() != nil {
		report.Cancelled = true
		window.Cancelled = true
		metrics.WindowsTotal.WithLabelValues("cancelled").Inc()
		o.log.Warn("Batch cancelled mid-window, backfilling failed units",
			"index", window.Index,
			"failures", len(failed),
			"error", ctx.Err(),
		)
		for _, r := range failed {
			o.collectSynthetic(state, report, domain.ReasonCancelled, retry.AttemptsOf(r.err))
		}
		return window
	}

	window.Degraded = state.Apply(window.Result, o.ctrl)
	metrics.WindowsTotal.WithLabelValues(window.Result.String()).Inc()

	switch {
	case len(failed) == 0:
		o.log.Debug("Window settled", "index", window.Index, "size", size, "width", window.Width)

	case window.Degraded:
		metrics.DegradationsTotal.Inc()
		o.log.Warn("Sustained failures, entering degraded-retry mode",
			"index", window.Index,
			"streak", state.Streak,
			"width", window.Width,
			"new_width", state.Width,
		)
		window.Recovered = o.retrySequentially(ctx, req, state, report, len(failed))

	case window.Result == throttle.WindowFailed:
		o.log.Warn("Window failed, backfilling synthetic outcomes",
			"index", window.Index,
			"failures", len(failed),
			"streak", state.Streak,
		)
		for range failed {
			o.collectSynthetic(state, report, domain.ReasonWindowFailed, 0)
		}

	default:
		o.log.Debug("Window partially failed, backfilling failed units",
			"index", window.Index,
			"successes", window.Successes,
			"failures", window.Failures,
		)
		for _, r := range failed {
			o.collectSynthetic(state, report, reasonFor(r.err), retry.AttemptsOf(r.err))
		}
	}

	return window
}

// retrySequentially re-attempts n failed units one at a time. A unit that
// fails again is backfilled immediately.
func (o *Orchestrator) retrySequentially(
	ctx context.Context,
	req domain.SimulationRequest,
	state *RunState,
	report *Report,
	n int,
) int {
	recovered := 0
	for i := range n {
		if i > 0 {
			_ = o.sleep(ctx, o.ctrl.SequentialCoolDown())
		}
		if ctx.Err() != nil {
			report.Cancelled = true
			o.collectSynthetic(state, report, domain.ReasonCancelled, 0)
			continue
		}

		out, err := o.executor.Execute(ctx, req)
		r := unitResult{outcome: out, err: err}
		o.countAttempts(r, report)
		if err != nil && ctx.Err() != nil {
			report.Cancelled = true
			o.collectSynthetic(state, report, domain.ReasonCancelled, retry.AttemptsOf(err))
			continue
		}
		if err != nil {
			o.collectSynthetic(state, report, domain.ReasonDegraded, retry.AttemptsOf(err))
			continue
		}
		o.collectAuthentic(state, report, out)
		recovered++
	}
	return recovered
}

func (o *Orchestrator) backfillRemaining(state *RunState, report *Report) {
	report.Cancelled = true
	for !state.Done() {
		o.collectSynthetic(state, report, domain.ReasonCancelled, 0)
	}
}

func (o *Orchestrator) collectAuthentic(state *RunState, report *Report, out domain.SimulationOutcome) {
	state.Collect(out)
	report.Authentic++
	metrics.OutcomesTotal.WithLabelValues(string(domain.SourceAuthentic), "").Inc()
}

func (o *Orchestrator) collectSynthetic(
	state *RunState,
	report *Report,
	reason domain.FallbackReason,
	attempts int,
) {
	state.Collect(o.synth.Backfill(reason, attempts))
	report.Synthetic++
}

func (o *Orchestrator) countAttempts(r unitResult, report *Report) {
	attempts := r.outcome.Provenance.Attempts
	if r.err != nil {
		attempts = retry.AttemptsOf(r.err)
	}
	report.Attempts += attempts
	if attempts > 1 {
		report.Retries += attempts - 1
	}
}

func reasonFor(err error) domain.FallbackReason {
	var fatal *retry.FatalCallError
	switch {
	case errors.Is(err, retry.ErrExhaustedRetries):
		return domain.ReasonExhausted
	case errors.As(err, &fatal) && fatal.Kind == retry.KindCanceled:
		return domain.ReasonCancelled
	default:
		return domain.ReasonFatal
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
