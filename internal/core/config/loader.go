package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/adsim/internal/infra/genai"
	"github.com/vietddude/adsim/internal/simulation/batch"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/retry"
)

// Override adjusts a loaded configuration before it is validated.
type Override func(*AppConfig)

// Load reads configuration from a YAML file. Values absent from the file
// keep their defaults; explicit zero values are kept as written.
func Load(path string, overrides ...Override) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A fallback section replaces the default distribution as a whole.
	var sections struct {
		Fallback *fallback.Distribution `yaml:"fallback"`
	}
	if err := yaml.Unmarshal(expandedData, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if sections.Fallback != nil {
		cfg.Fallback = *sections.Fallback
	}

	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Port: 8080},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Gemini:   genai.DefaultConfig(),
		Retry:    retry.DefaultPolicy,
		Batch:    batch.DefaultConfig(),
		Fallback: fallback.DefaultDistribution,
	}
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Batch.Validate(); err != nil {
		return err
	}
	if err := c.Fallback.Validate(); err != nil {
		return err
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return errors.New("rate_limit: requests_per_second must not be negative")
	}
	s := c.Sandbox
	if s.FailureRate < 0 || s.PermanentRate < 0 || s.FailureRate+s.PermanentRate > 1 {
		return errors.New("sandbox: failure rates must be between 0 and 1")
	}
	if !s.Enabled && c.Gemini.APIKey == "" {
		return errors.New("gemini: api_key is required unless sandbox is enabled")
	}
	return nil
}
