package throttle

import (
	"errors"
	"time"
)

// Config holds window sizing and cool-down behavior for a batch.
type Config struct {
	// Concurrency bounds
	WindowWidth    int `yaml:"window_width"`     // Units dispatched concurrently per window (default: 5)
	MinWindowWidth int `yaml:"min_window_width"` // Floor when shrinking (default: 1)

	// Consecutive failed windows before entering degraded-retry mode (default: 3)
	FailureThreshold int `yaml:"failure_threshold"`

	// Pauses between windows
	CoolDown        time.Duration `yaml:"cool_down"`         // After a healthy window (default: 1s)
	FailureCoolDown time.Duration `yaml:"failure_cool_down"` // After a failed window below threshold (default: 5s)
}

// DefaultConfig returns the production window settings.
func DefaultConfig() Config {
	return Config{
		WindowWidth:      5,
		MinWindowWidth:   1,
		FailureThreshold: 3,
		CoolDown:         1 * time.Second,
		FailureCoolDown:  5 * time.Second,
	}
}

// Validate checks the window settings.
func (c Config) Validate() error {
	switch {
	case c.WindowWidth < 1:
		return errors.New("throttle: window_width must be at least 1")
	case c.MinWindowWidth < 1 || c.MinWindowWidth > c.WindowWidth:
		return errors.New("throttle: min_window_width must be between 1 and window_width")
	case c.FailureThreshold < 1:
		return errors.New("throttle: failure_threshold must be at least 1")
	case c.CoolDown < 0 || c.FailureCoolDown < 0:
		return errors.New("throttle: cool-down delays must not be negative")
	}
	return nil
}
