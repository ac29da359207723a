package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
	"github.com/vietddude/adsim/internal/infra/sandbox"
	"github.com/vietddude/adsim/internal/infra/storage/memory"
	"github.com/vietddude/adsim/internal/simulation/batch"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/health"
	"github.com/vietddude/adsim/internal/simulation/persona"
	"github.com/vietddude/adsim/internal/simulation/retry"
)

// =============================================================================
// Helpers
// =============================================================================

type recordingStats struct {
	recorded int
	err      error
}

func (r *recordingStats) Record(ctx context.Context, outcomes []domain.SimulationOutcome) error {
	r.recorded += len(outcomes)
	return r.err
}

type shortRunner struct{}

func (shortRunner) ValidateCount(int) error { return nil }

func (shortRunner) RunWithReport(
	ctx context.Context,
	req domain.SimulationRequest,
	count int,
) ([]domain.SimulationOutcome, batch.Report) {
	return nil, batch.Report{}
}

type stubHealth struct {
	status health.SystemStatus
}

func (s stubHealth) CheckHealth(ctx context.Context) health.HealthReport {
	return health.HealthReport{SystemStatus: s.status}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDeps(failureRate float64) (Deps, *recordingStats) {
	responder := sandbox.NewResponder(
		sandbox.Config{FailureRate: failureRate},
		fallback.DefaultDistribution,
		random.NewSeeded(5),
	)
	policy := retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
	exec := retry.NewExecutor(responder, policy)

	cfg := batch.DefaultConfig()
	cfg.CoolDown = 0
	cfg.FailureCoolDown = 0
	orch := batch.NewOrchestrator(exec, fallback.NewSynthesizer(fallback.DefaultDistribution, nil), cfg)

	stats := &recordingStats{}
	return Deps{
		Runner:      orch,
		Personas:    persona.NewGenerator(random.NewSeeded(1)),
		Leaderboard: memory.NewLeaderboardRepo(memory.NewMemoryStorage()),
		Stats:       stats,
		Health:      stubHealth{status: health.StatusHealthy},
	}, stats
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func simulateBody(count string) string {
	return `{
		"persona": {
			"id": "p-1",
			"ageRange": "25-34",
			"gender": "female",
			"interests": ["fitness"],
			"socioeconomicCategory": "middle class",
			"descriptionText": "Runner"
		},
		"productText": "Running shoes",
		"taglineText": "Go further",
		"price": 120,
		"count": ` + count + `
	}`
}

// =============================================================================
// POST /simulate
// =============================================================================

func TestSimulate_ReturnsExactCount(t *testing.T) {
	for _, rate := range []float64{0, 1} {
		deps, stats := newTestDeps(rate)
		s := NewServer(deps, 0)

		rec := doRequest(t, s, http.MethodPost, "/simulate", simulateBody("7"))
		if rec.Code != http.StatusOK {
			t.Fatalf("rate %.0f: status = %d, body %s", rate, rec.Code, rec.Body.String())
		}

		var outcomes []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &outcomes); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if len(outcomes) != 7 {
			t.Errorf("rate %.0f: expected 7 outcomes, got %d", rate, len(outcomes))
		}
		for _, o := range outcomes {
			if len(o) != 2 || o["choice"] == nil || o["rationale"] == nil {
				t.Errorf("outcome must only expose choice and rationale, got %v", o)
			}
		}
		if stats.recorded != 7 {
			t.Errorf("expected 7 recorded outcomes, got %d", stats.recorded)
		}
		if rec.Header().Get("X-Batch-Id") == "" {
			t.Error("missing batch id header")
		}
	}
}

func TestSimulate_Validation(t *testing.T) {
	deps, _ := newTestDeps(0)
	s := NewServer(deps, 0)

	tests := []struct {
		name string
		body string
	}{
		{"zero count", simulateBody("0")},
		{"count too large", simulateBody("501")},
		{"fractional count", simulateBody("2.5")},
		{"string count", simulateBody(`"5"`)},
		{"missing count", strings.Replace(simulateBody("1"), `"count": 1`, `"other": 1`, 1)},
		{"missing product", strings.Replace(simulateBody("1"), "Running shoes", "", 1)},
		{"negative price", strings.Replace(simulateBody("1"), `"price": 120`, `"price": -1`, 1)},
		{"not json", "count=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/simulate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("expected error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestSimulate_WrongOutcomeCountIsInternalError(t *testing.T) {
	deps, _ := newTestDeps(0)
	deps.Runner = shortRunner{}
	s := NewServer(deps, 0)

	rec := doRequest(t, s, http.MethodPost, "/simulate", simulateBody("3"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSimulate_StatsFailureIsIgnored(t *testing.T) {
	deps, stats := newTestDeps(0)
	stats.err = errors.New("redis down")
	s := NewServer(deps, 0)

	rec := doRequest(t, s, http.MethodPost, "/simulate", simulateBody("2"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// =============================================================================
// Personas and leaderboard
// =============================================================================

func TestRandomPersona(t *testing.T) {
	deps, _ := newTestDeps(0)
	s := NewServer(deps, 0)

	rec := doRequest(t, s, http.MethodGet, "/personas/random", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var p domain.PersonaProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if err := p.Validate(); err != nil || p.ID == "" {
		t.Errorf("invalid persona %+v: %v", p, err)
	}
}

func TestLeaderboard_SaveAndList(t *testing.T) {
	deps, _ := newTestDeps(0)
	s := NewServer(deps, 0)

	rec := doRequest(t, s, http.MethodGet, "/leaderboard", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}

	rates := `{"productText":"Lamp","taglineText":"Light up","price":30,"sampleSize":10,"engagementRate":0.4,"conversionRate":0.1}`
	if rec := doRequest(t, s, http.MethodPost, "/leaderboard", rates); rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	outcomes := `{"productText":"Desk","taglineText":"Work well","price":200,"outcomes":[
		{"choice":"follow_and_buy","rationale":"a"},
		{"choice":"follow_link","rationale":"b"},
		{"choice":"ignore","rationale":"c"},
		{"choice":"follow_and_save","rationale":"d"}
	]}`
	rec = doRequest(t, s, http.MethodPost, "/leaderboard", outcomes)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}
	var saved domain.LeaderboardEntry
	_ = json.Unmarshal(rec.Body.Bytes(), &saved)
	if saved.SampleSize != 4 || saved.EngagementRate != 0.75 || saved.ConversionRate != 0.25 || saved.ID == "" {
		t.Errorf("unexpected summarized entry %+v", saved)
	}

	rec = doRequest(t, s, http.MethodGet, "/leaderboard?limit=1", "")
	var top []domain.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &top); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(top) != 1 || top[0].ProductText != "Desk" {
		t.Errorf("unexpected top entries %+v", top)
	}
}

func TestLeaderboard_Invalid(t *testing.T) {
	deps, _ := newTestDeps(0)
	s := NewServer(deps, 0)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"bad limit", http.MethodGet, "/leaderboard?limit=abc", ""},
		{"zero limit", http.MethodGet, "/leaderboard?limit=0", ""},
		{"missing fields", http.MethodPost, "/leaderboard", `{"price":1}`},
		{"unknown choice", http.MethodPost, "/leaderboard", `{"productText":"a","taglineText":"b","price":1,"outcomes":[{"choice":"maybe"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doRequest(t, s, tt.method, tt.path, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

// =============================================================================
// Health and metrics
// =============================================================================

func TestHealth(t *testing.T) {
	tests := []struct {
		status health.SystemStatus
		code   int
	}{
		{health.StatusHealthy, http.StatusOK},
		{health.StatusDegraded, http.StatusOK},
		{health.StatusCritical, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		deps, _ := newTestDeps(0)
		deps.Health = stubHealth{status: tt.status}
		s := NewServer(deps, 0)

		rec := doRequest(t, s, http.MethodGet, "/health", "")
		if rec.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.status, rec.Code, tt.code)
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte(string(tt.status))) {
			t.Errorf("%s: body %s", tt.status, rec.Body.String())
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	deps, _ := newTestDeps(0)
	s := NewServer(deps, 0)

	_ = doRequest(t, s, http.MethodPost, "/simulate", simulateBody("1"))
	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "adsim_batch_duration_seconds") {
		t.Errorf("metrics not exposed: %d", rec.Code)
	}
}
