package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/adsim/internal/core/domain"
)

// DefaultStatsTTL is how long a day of outcome counts is kept.
const DefaultStatsTTL = 30 * 24 * time.Hour

// DailyStats holds outcome counts for one UTC day, keyed by source then choice.
type DailyStats struct {
	Day    string                                           `json:"day"`
	Counts map[domain.Source]map[domain.OutcomeChoice]int64 `json:"counts"`
}

// Total sums every count for source.
func (s DailyStats) Total(source domain.Source) int64 {
	var n int64
	for _, c := range s.Counts[source] {
		n += c
	}
	return n
}

// OutcomeStats stores per-day outcome counters in a redis hash.
type OutcomeStats struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewOutcomeStats creates the stats store.
func NewOutcomeStats(client *Client, ttl time.Duration) *OutcomeStats {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &OutcomeStats{
		rdb: client.rdb,
		ttl: ttl,
		now: time.Now,
	}
}

// Key helpers
func dayKey(day string) string {
	return fmt.Sprintf("outcomes:%s", day)
}

func statsField(source domain.Source, choice domain.OutcomeChoice) string {
	return fmt.Sprintf("%s:%s", source, choice)
}

// Day formats t as a stats day.
func Day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// Record increments today's counters for outcomes in a single transaction.
func (s *OutcomeStats) Record(ctx context.Context, outcomes []domain.SimulationOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	counts := make(map[string]int64)
	for _, o := range outcomes {
		source := o.Provenance.Source
		if source == "" {
			source = domain.SourceAuthentic
		}
		counts[statsField(source, o.Choice)]++
	}

	key := dayKey(Day(s.now()))
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, n := range counts {
			pipe.HIncrBy(ctx, key, field, n)
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome stats: %w", err)
	}
	return nil
}

// Get returns the counters for day (YYYY-MM-DD). Unknown days are empty.
func (s *OutcomeStats) Get(ctx context.Context, day string) (DailyStats, error) {
	raw, err := s.rdb.HGetAll(ctx, dayKey(day)).Result()
	if err != nil {
		return DailyStats{}, fmt.Errorf("hgetall failed: %w", err)
	}

	stats := DailyStats{
		Day:    day,
		Counts: make(map[domain.Source]map[domain.OutcomeChoice]int64),
	}
	for field, val := range raw {
		source, choice, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return DailyStats{}, fmt.Errorf("invalid counter %s=%q: %w", field, val, err)
		}
		src := domain.Source(source)
		if stats.Counts[src] == nil {
			stats.Counts[src] = make(map[domain.OutcomeChoice]int64)
		}
		stats.Counts[src][domain.OutcomeChoice(choice)] = n
	}
	return stats, nil
}

// Today returns the counters for the current UTC day.
func (s *OutcomeStats) Today(ctx context.Context) (DailyStats, error) {
	return s.Get(ctx, Day(s.now()))
}
