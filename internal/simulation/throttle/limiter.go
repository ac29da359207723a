package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/simulation/metrics"
	"github.com/vietddude/adsim/internal/simulation/retry"
)

// LimiterConfig caps the request rate toward the external service.
type LimiterConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables the limiter
	Burst             int     `yaml:"burst"`
}

// LimitedResponder gates every external call through a token bucket shared
// by all batches in the process.
type LimitedResponder struct {
	next    retry.Responder
	limiter *rate.Limiter
}

// NewLimitedResponder wraps next. It returns next unchanged when the rate is
// not positive.
func NewLimitedResponder(next retry.Responder, cfg LimiterConfig) retry.Responder {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &LimitedResponder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// Respond waits for admission, then forwards the call.
func (l *LimitedResponder) Respond(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// the token would only arrive after the deadline
			err = fmt.Errorf("%w: %w", retry.ErrDeadlineTooClose, err)
		}
		return domain.SimulationOutcome{}, fmt.Errorf("admission wait: %w", err)
	}
	metrics.AdmissionWait.Observe(time.Since(start).Seconds())
	return l.next.Respond(ctx, req)
}
