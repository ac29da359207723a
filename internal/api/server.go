// Package api exposes the simulation engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/storage"
	"github.com/vietddude/adsim/internal/simulation/batch"
	"github.com/vietddude/adsim/internal/simulation/health"
)

// BatchRunner runs simulation batches.
type BatchRunner interface {
	ValidateCount(count int) error
	RunWithReport(ctx context.Context, req domain.SimulationRequest, count int) ([]domain.SimulationOutcome, batch.Report)
}

// PersonaGenerator produces random personas.
type PersonaGenerator interface {
	Generate() domain.PersonaProfile
}

// StatsRecorder stores outcome statistics.
type StatsRecorder interface {
	Record(ctx context.Context, outcomes []domain.SimulationOutcome) error
}

// HealthChecker reports engine health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) health.HealthReport
}

// Deps are the collaborators of the HTTP boundary. Stats is optional.
type Deps struct {
	Runner      BatchRunner
	Personas    PersonaGenerator
	Leaderboard storage.LeaderboardRepository
	Stats       StatsRecorder
	Health      HealthChecker
}

// Server hosts the HTTP API.
type Server struct {
	deps   Deps
	engine *gin.Engine
	server *http.Server
	log    *slog.Logger
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(deps Deps, port int) *Server {
	engine := gin.New()
	s := &Server{
		deps:   deps,
		engine: engine,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: slog.Default().With("component", "api"),
	}

	engine.Use(gin.Recovery(), s.requestLogger())

	engine.POST("/simulate", s.handleSimulate)
	engine.GET("/personas/random", s.handleRandomPersona)
	engine.GET("/leaderboard", s.handleLeaderboard)
	engine.POST("/leaderboard", s.handleSaveLeaderboard)
	engine.GET("/health", s.handleHealth)
	engine.GET("/health/detailed", s.handleDetailed)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func internalError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
