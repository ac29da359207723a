package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/storage"
	"github.com/vietddude/adsim/internal/simulation/health"
)

type simulateRequest struct {
	domain.SimulationRequest
	Count *float64 `json:"count"`
}

func (r simulateRequest) count() (int, error) {
	if r.Count == nil {
		return 0, &domain.ValidationError{Field: "count", Reason: "required"}
	}
	c := *r.Count
	if c != math.Trunc(c) || math.IsInf(c, 0) {
		return 0, &domain.ValidationError{Field: "count", Reason: "must be a whole number"}
	}
	if c < math.MinInt32 || c > math.MaxInt32 {
		return 0, &domain.ValidationError{Field: "count", Reason: "out of range"}
	}
	return int(c), nil
}

func (s *Server) handleSimulate(c *gin.Context) {
	var body simulateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	count, err := body.count()
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.deps.Runner.ValidateCount(count); err != nil {
		badRequest(c, err)
		return
	}
	if err := body.SimulationRequest.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	outcomes, report := s.deps.Runner.RunWithReport(c.Request.Context(), body.SimulationRequest, count)
	if len(outcomes) != count {
		s.log.Error("Batch returned wrong number of outcomes",
			"batch_id", report.BatchID,
			"want", count,
			"got", len(outcomes),
		)
		internalError(c)
		return
	}

	if s.deps.Stats != nil {
		if err := s.deps.Stats.Record(c.Request.Context(), outcomes); err != nil {
			s.log.Warn("Failed to record outcome stats", "batch_id", report.BatchID, "error", err)
		}
	}

	c.Header("X-Batch-Id", report.BatchID)
	c.JSON(http.StatusOK, outcomes)
}

func (s *Server) handleRandomPersona(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Personas.Generate())
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := s.deps.Leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("Failed to load leaderboard", "error", err)
		internalError(c)
		return
	}
	if entries == nil {
		entries = []*domain.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// saveLeaderboardRequest accepts either precomputed rates or the raw
// outcomes of a simulation, which are summarized server side.
type saveLeaderboardRequest struct {
	domain.LeaderboardEntry
	Outcomes []domain.SimulationOutcome `json:"outcomes"`
}

func (s *Server) handleSaveLeaderboard(c *gin.Context) {
	var body saveLeaderboardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}

	entry := body.LeaderboardEntry
	if len(body.Outcomes) > 0 {
		summary := domain.Summarize(body.Outcomes)
		entry.SampleSize = summary.Total
		entry.EngagementRate = summary.EngagementRate
		entry.ConversionRate = summary.ConversionRate
	}

	if err := s.deps.Leaderboard.Insert(c.Request.Context(), &entry); err != nil {
		if errors.Is(err, storage.ErrInvalidEntry) {
			badRequest(c, err)
			return
		}
		s.log.Error("Failed to save leaderboard entry", "error", err)
		internalError(c)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.deps.Health.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if report.SystemStatus == health.StatusCritical {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": report.SystemStatus})
}

func (s *Server) handleDetailed(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Health.CheckHealth(c.Request.Context()))
}
