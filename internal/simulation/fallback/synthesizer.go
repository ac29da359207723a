// Package fallback produces synthetic outcomes for units of work the
// external service could not complete.
package fallback

import (
	"fmt"
	"math"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
	"github.com/vietddude/adsim/internal/simulation/metrics"
)

// SyntheticRationale marks an outcome as produced without the external service.
const SyntheticRationale = "[synthetic] Response estimated from baseline engagement rates; the simulation service was unavailable."

// Distribution holds the probability of each choice. Weights must sum to 1.
type Distribution struct {
	Ignore        float64 `yaml:"ignore"`
	FollowLink    float64 `yaml:"follow_link"`
	FollowAndSave float64 `yaml:"follow_and_save"`
	FollowAndBuy  float64 `yaml:"follow_and_buy"`
}

// DefaultDistribution reproduces observed real-world response rates.
var DefaultDistribution = Distribution{
	Ignore:        0.50,
	FollowLink:    0.25,
	FollowAndSave: 0.15,
	FollowAndBuy:  0.10,
}

// Validate checks that weights are non-negative and sum to 1.
func (d Distribution) Validate() error {
	for _, w := range []float64{d.Ignore, d.FollowLink, d.FollowAndSave, d.FollowAndBuy} {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("fallback: negative weight %v", w)
		}
	}
	if sum := d.Ignore + d.FollowLink + d.FollowAndSave + d.FollowAndBuy; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("fallback: weights sum to %v, want 1", sum)
	}
	return nil
}

// Choose maps r in [0,1) onto the cumulative distribution in the order
// ignore, follow link, follow and save, follow and buy.
func (d Distribution) Choose(r float64) domain.OutcomeChoice {
	cumulative := d.Ignore
	if r < cumulative {
		return domain.ChoiceIgnore
	}
	cumulative += d.FollowLink
	if r < cumulative {
		return domain.ChoiceFollowLink
	}
	cumulative += d.FollowAndSave
	if r < cumulative {
		return domain.ChoiceFollowAndSave
	}
	return domain.ChoiceFollowAndBuy
}

// Synthesizer samples synthetic outcomes. It never fails.
type Synthesizer struct {
	dist Distribution
	rng  random.Source
}

// NewSynthesizer creates a synthesizer. A nil source uses the global one.
func NewSynthesizer(dist Distribution, rng random.Source) *Synthesizer {
	if rng == nil {
		rng = random.Global()
	}
	return &Synthesizer{dist: dist, rng: rng}
}

// Synthesize draws one outcome marked as synthetic.
func (s *Synthesizer) Synthesize() domain.SimulationOutcome {
	return domain.SimulationOutcome{
		Choice:    s.dist.Choose(s.rng.Float64()),
		Rationale: SyntheticRationale,
		Provenance: domain.Provenance{
			Source: domain.SourceSynthetic,
		},
	}
}

// Backfill synthesizes an outcome for a failed unit and records why.
func (s *Synthesizer) Backfill(reason domain.FallbackReason, attempts int) domain.SimulationOutcome {
	out := s.Synthesize()
	out.Provenance.Reason = reason
	out.Provenance.Attempts = attempts
	metrics.OutcomesTotal.WithLabelValues(string(domain.SourceSynthetic), string(reason)).Inc()
	return out
}
