package genai

import "time"

// Config holds Gemini client settings.
type Config struct {
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	TopP            float32       `yaml:"top_p"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"` // Per-attempt deadline, 0 = none
}

// DefaultConfig returns the default model settings.
func DefaultConfig() Config {
	return Config{
		Model:           "gemini-2.5-flash-lite",
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 512,
		Timeout:         30 * time.Second,
	}
}
