package storage

import (
	"context"
	"errors"

	"github.com/vietddude/adsim/internal/core/domain"
)

const (
	// DefaultLeaderboardLimit is used when a caller asks for no specific limit.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps a single Top query.
	MaxLeaderboardLimit = 100
)

var (
	// ErrInvalidEntry is returned when an entry cannot be stored
	ErrInvalidEntry = errors.New("invalid leaderboard entry")
)

// LeaderboardRepository stores simulated advertisement results
type LeaderboardRepository interface {
	// Insert stores an entry. ID and CreatedAt are assigned when empty.
	Insert(ctx context.Context, entry *domain.LeaderboardEntry) error

	// Top returns up to limit entries ranked by engagement rate, then
	// conversion rate, then most recent
	Top(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error)
}

// NormalizeLimit clamps limit into [1, MaxLeaderboardLimit].
func NormalizeLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}
