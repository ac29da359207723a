package batch

import (
	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/simulation/throttle"
)

// RunState is the mutable state of one batch. It is owned by a single
// orchestrating goroutine and discarded when the batch completes.
type RunState struct {
	Requested int
	Collected []domain.SimulationOutcome
	Width     int
	Streak    int
}

// NewRunState creates the state for a batch of count units.
func NewRunState(count, width int) *RunState {
	if count < 0 {
		count = 0
	}
	return &RunState{
		Requested: count,
		Collected: make([]domain.SimulationOutcome, 0, count),
		Width:     width,
	}
}

// Remaining is the number of unresolved units.
func (s *RunState) Remaining() int {
	return s.Requested - len(s.Collected)
}

// Done reports whether every requested unit has an outcome.
func (s *RunState) Done() bool {
	return len(s.Collected) >= s.Requested
}

// NextWindowSize is the number of units dispatched by the next window.
func (s *RunState) NextWindowSize() int {
	return min(s.Width, s.Remaining())
}

// Collect appends outcomes, never past the requested count.
func (s *RunState) Collect(outcomes ...domain.SimulationOutcome) {
	for _, o := range outcomes {
		if s.Done() {
			return
		}
		s.Collected = append(s.Collected, o)
	}
}

// Apply folds a settled window into the failure streak.
//
// Any window with at least one success resets the streak. A failed window
// increments it, and once the streak reaches the controller's threshold the
// width is halved and Apply reports that degraded-retry mode is active.
func (s *RunState) Apply(result throttle.WindowResult, ctrl *throttle.WindowController) bool {
	if result != throttle.WindowFailed {
		s.Streak = 0
		return false
	}
	s.Streak++
	if !ctrl.ShouldDegrade(s.Streak) {
		return false
	}
	s.Width = ctrl.Shrink(s.Width)
	return true
}
