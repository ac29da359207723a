// Package genai adapts the Gemini API to the simulation engine.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vietddude/adsim/internal/core/domain"
)

// contentGenerator is the subset of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client asks Gemini how a persona reacts to an advertisement.
type Client struct {
	client *genai.Client
	model  contentGenerator
	cfg    Config
	log    *slog.Logger
}

// NewClient creates a Gemini-backed responder.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature > 0 {
		model.SetTemperature(cfg.Temperature)
	}
	if cfg.TopP > 0 {
		model.SetTopP(cfg.TopP)
	}
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = outcomeSchema()

	return &Client{
		client: client,
		model:  model,
		cfg:    cfg,
		log:    slog.Default().With("component", "gemini", "model", cfg.Model),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Respond performs one generative call. Failures are returned as
// classifiable errors; retries are the caller's job.
func (c *Client) Respond(
	ctx context.Context,
	req domain.SimulationRequest,
) (domain.SimulationOutcome, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		return domain.SimulationOutcome{}, mapError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return domain.SimulationOutcome{}, err
	}

	outcome, err := parseOutcome(text)
	if err != nil {
		c.log.Debug("Unparseable model response", "error", err)
		return domain.SimulationOutcome{}, err
	}
	return outcome, nil
}
