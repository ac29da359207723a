package config

import (
	"fmt"
	"log/slog"

	"github.com/vietddude/adsim/internal/infra/genai"
	redisclient "github.com/vietddude/adsim/internal/infra/redis"
	"github.com/vietddude/adsim/internal/infra/sandbox"
	"github.com/vietddude/adsim/internal/infra/storage/postgres"
	"github.com/vietddude/adsim/internal/simulation/batch"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/retry"
	"github.com/vietddude/adsim/internal/simulation/throttle"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logging   LoggingConfig          `yaml:"logging"`
	Gemini    genai.Config           `yaml:"gemini"`
	Retry     retry.Policy           `yaml:"retry"`
	Batch     batch.Config           `yaml:"batch"`
	Fallback  fallback.Distribution  `yaml:"fallback"`
	RateLimit throttle.LimiterConfig `yaml:"rate_limit"`
	Redis     redisclient.Config     `yaml:"redis"`
	Database  postgres.Config        `yaml:"database"`
	Sandbox   sandbox.Config         `yaml:"sandbox"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: invalid level %q", l.Level)
	}
	return level, nil
}

// JSON reports whether logs are written as JSON instead of colored text.
func (l LoggingConfig) JSON() bool {
	return l.Format == "json"
}

func (l LoggingConfig) validate() error {
	if _, err := l.SlogLevel(); err != nil {
		return err
	}
	switch l.Format {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("logging: invalid format %q", l.Format)
}
