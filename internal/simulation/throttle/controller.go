package throttle

import "time"

// WindowResult classifies a settled window.
type WindowResult int

const (
	// WindowSucceeded means every unit returned an authentic outcome.
	WindowSucceeded WindowResult = iota
	// WindowPartial means some units succeeded and some failed.
	WindowPartial
	// WindowFailed means no unit in the window succeeded.
	WindowFailed
)

func (r WindowResult) String() string {
	switch r {
	case WindowSucceeded:
		return "success"
	case WindowPartial:
		return "partial"
	default:
		return "failed"
	}
}

// Classify turns success and failure counts into a WindowResult.
func Classify(successes, failures int) WindowResult {
	switch {
	case failures == 0:
		return WindowSucceeded
	case successes > 0:
		return WindowPartial
	default:
		return WindowFailed
	}
}

// WindowController computes window widths and cool-down delays. It holds
// no per-batch state; the caller passes the current width and streak.
type WindowController struct {
	config Config
}

// NewWindowController creates a controller. Invalid widths fall back to defaults.
func NewWindowController(config Config) *WindowController {
	if config.WindowWidth < 1 {
		config.WindowWidth = DefaultConfig().WindowWidth
	}
	if config.MinWindowWidth < 1 {
		config.MinWindowWidth = 1
	}
	if config.MinWindowWidth > config.WindowWidth {
		config.MinWindowWidth = config.WindowWidth
	}
	if config.FailureThreshold < 1 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	return &WindowController{config: config}
}

// Config returns the effective configuration.
func (c *WindowController) Config() Config {
	return c.config
}

// InitialWidth is the width every batch starts with.
func (c *WindowController) InitialWidth() int {
	return c.config.WindowWidth
}

// ShouldDegrade reports whether the failure streak has reached the threshold.
func (c *WindowController) ShouldDegrade(streak int) bool {
	return streak >= c.config.FailureThreshold
}

// Shrink halves the width (floor), never below MinWindowWidth.
func (c *WindowController) Shrink(width int) int {
	width /= 2
	if width < c.config.MinWindowWidth {
		width = c.config.MinWindowWidth
	}
	return width
}

// CoolDownAfter returns the pause inserted after a window.
//
// A failed window below the threshold waits the longer FailureCoolDown;
// everything else, including degraded windows, waits CoolDown.
func (c *WindowController) CoolDownAfter(result WindowResult, degraded bool) time.Duration {
	if result == WindowFailed && !degraded {
		return c.config.FailureCoolDown
	}
	return c.config.CoolDown
}

// SequentialCoolDown is the pause between units re-attempted in degraded mode.
func (c *WindowController) SequentialCoolDown() time.Duration {
	return c.config.CoolDown
}
