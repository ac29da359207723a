package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/adsim/internal/api"
	"github.com/vietddude/adsim/internal/core/config"
	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/genai"
	redisclient "github.com/vietddude/adsim/internal/infra/redis"
	"github.com/vietddude/adsim/internal/infra/sandbox"
	"github.com/vietddude/adsim/internal/infra/storage"
	"github.com/vietddude/adsim/internal/infra/storage/memory"
	"github.com/vietddude/adsim/internal/infra/storage/postgres"
	"github.com/vietddude/adsim/internal/simulation/batch"
	"github.com/vietddude/adsim/internal/simulation/fallback"
	"github.com/vietddude/adsim/internal/simulation/health"
	"github.com/vietddude/adsim/internal/simulation/persona"
	"github.com/vietddude/adsim/internal/simulation/retry"
	"github.com/vietddude/adsim/internal/simulation/throttle"
)

// App is the main application struct that wires the engine and its surfaces.
type App struct {
	cfg          *config.AppConfig
	orchestrator *batch.Orchestrator
	personas     *persona.Generator
	leaderboard  storage.LeaderboardRepository
	stats        *redisclient.OutcomeStats
	healthMon    *health.Monitor
	server       *api.Server
	gemini       *genai.Client
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates a new App instance with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{
		cfg:       cfg,
		healthMon: health.NewMonitor(health.DefaultHistory),
		personas:  persona.NewGenerator(nil),
		log:       slog.Default().With("component", "app"),
	}

	// 1. External generative call
	var responder retry.Responder
	if cfg.Sandbox.Enabled {
		responder = sandbox.NewResponder(cfg.Sandbox, cfg.Fallback, nil)
		a.log.Info("Using sandbox responder",
			"failure_rate", cfg.Sandbox.FailureRate,
			"permanent_rate", cfg.Sandbox.PermanentRate,
		)
	} else {
		client, err := genai.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini: %w", err)
		}
		a.gemini = client
		responder = client
		a.log.Info("Using Gemini responder", "model", cfg.Gemini.Model)
	}
	responder = throttle.NewLimitedResponder(responder, cfg.RateLimit)

	// 2. Engine
	executor := retry.NewExecutor(responder, cfg.Retry)
	synth := fallback.NewSynthesizer(cfg.Fallback, nil)
	a.orchestrator = batch.NewOrchestrator(executor, synth, cfg.Batch,
		batch.WithObserver(a.healthMon.Record),
	)

	// 3. Storage
	if cfg.Database.Enabled() {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.leaderboard = postgres.NewLeaderboardRepo(db)
		a.healthMon.AddDependency("postgres", db)
		a.log.Info("Using PostgreSQL storage")
	} else {
		a.leaderboard = memory.NewLeaderboardRepo(memory.NewMemoryStorage())
		a.log.Info("Using in-memory storage")
	}

	// 4. Outcome statistics
	if cfg.Redis.Enabled() {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redisClient = client
		a.stats = redisclient.NewOutcomeStats(client, redisclient.DefaultStatsTTL)
		a.healthMon.AddDependency("redis", client)
	}

	// 5. HTTP boundary
	deps := api.Deps{
		Runner:      a.orchestrator,
		Personas:    a.personas,
		Leaderboard: a.leaderboard,
		Health:      a.healthMon,
	}
	if a.stats != nil {
		deps.Stats = a.stats
	}
	a.server = api.NewServer(deps, cfg.Server.Port)

	return a, nil
}

// Run executes a single batch outside the HTTP server.
func (a *App) Run(
	ctx context.Context,
	req domain.SimulationRequest,
	count int,
) ([]domain.SimulationOutcome, batch.Report, error) {
	if err := a.orchestrator.ValidateCount(count); err != nil {
		return nil, batch.Report{}, err
	}
	if err := req.Validate(); err != nil {
		return nil, batch.Report{}, err
	}
	outcomes, report := a.orchestrator.RunWithReport(ctx, req, count)
	if a.stats != nil {
		if err := a.stats.Record(ctx, outcomes); err != nil {
			a.log.Warn("Failed to record outcome stats", "error", err)
		}
	}
	return outcomes, report, nil
}

// Personas returns the persona generator.
func (a *App) Personas() *persona.Generator {
	return a.personas
}

// Start starts the HTTP server and background collectors.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Simulator started",
		"port", a.cfg.Server.Port,
		"window_width", a.cfg.Batch.WindowWidth,
		"max_attempts", a.cfg.Retry.MaxAttempts,
	)
	return nil
}

// Stop shuts the HTTP server down and releases connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping simulator...")
	err := a.server.Stop(ctx)
	a.Close()
	return err
}

// Close releases external clients and connections.
func (a *App) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			a.log.Warn("Failed to close Gemini client", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
