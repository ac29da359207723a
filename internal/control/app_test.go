package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/adsim/internal/core/config"
	"github.com/vietddude/adsim/internal/core/domain"
)

func sandboxConfig(failureRate float64) *config.AppConfig {
	cfg := config.Default()
	cfg.Server.Port = 18080
	cfg.Sandbox.Enabled = true
	cfg.Sandbox.FailureRate = failureRate
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond
	cfg.Batch.CoolDown = 0
	cfg.Batch.FailureCoolDown = 0
	return cfg
}

func TestNewApp_RequiresGeminiKeyWithoutSandbox(t *testing.T) {
	cfg := config.Default()
	if _, err := NewApp(context.Background(), cfg); err == nil {
		t.Error("expected error without gemini key")
	}
}

func TestApp_Run(t *testing.T) {
	for _, rate := range []float64{0, 0.5, 1} {
		app, err := NewApp(context.Background(), sandboxConfig(rate))
		if err != nil {
			t.Fatalf("NewApp failed: %v", err)
		}

		req := domain.SimulationRequest{
			Persona:     app.Personas().Generate(),
			ProductText: "Noise cancelling headphones",
			TaglineText: "Hear only what matters",
			Price:       249,
		}
		outcomes, report, err := app.Run(context.Background(), req, 12)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(outcomes) != 12 || report.Requested != 12 {
			t.Errorf("rate %.1f: expected 12 outcomes, got %d", rate, len(outcomes))
		}
		if report.Authentic+report.Synthetic != 12 {
			t.Errorf("rate %.1f: report totals do not add up: %+v", rate, report)
		}

		if got := app.healthMon.CheckHealth(context.Background()).Engine.Batches; got != 1 {
			t.Errorf("expected monitor to observe 1 batch, got %d", got)
		}
	}
}

func TestApp_RunRejectsInvalidInput(t *testing.T) {
	app, err := NewApp(context.Background(), sandboxConfig(0))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	var vErr *domain.ValidationError
	if _, _, err := app.Run(context.Background(), domain.SimulationRequest{}, 5); !errors.As(err, &vErr) {
		t.Errorf("expected validation error, got %v", err)
	}
	valid := domain.SimulationRequest{Persona: app.Personas().Generate(), ProductText: "a", TaglineText: "b", Price: 1}
	if _, _, err := app.Run(context.Background(), valid, 501); !errors.As(err, &vErr) {
		t.Errorf("expected count validation error, got %v", err)
	}
}
