package batch

import (
	"fmt"

	"github.com/vietddude/adsim/internal/simulation/throttle"
)

// DefaultMaxCount is the largest batch accepted from callers.
const DefaultMaxCount = 500

// Config holds orchestrator settings.
type Config struct {
	throttle.Config `yaml:",inline"`

	MaxCount int `yaml:"max_count"`
}

// DefaultConfig returns the production batch settings.
func DefaultConfig() Config {
	return Config{
		Config:   throttle.DefaultConfig(),
		MaxCount: DefaultMaxCount,
	}
}

// Validate checks the batch settings.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.MaxCount < 1 {
		return fmt.Errorf("batch: max_count must be at least 1, got %d", c.MaxCount)
	}
	return nil
}
