package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/storage"
)

const insertLeaderboardEntry = `
INSERT INTO leaderboard_entries (
    id, product_text, tagline_text, price, sample_size,
    engagement_rate, conversion_rate, created_at
) VALUES (
    :id, :product_text, :tagline_text, :price, :sample_size,
    :engagement_rate, :conversion_rate, :created_at
)`

const selectTopLeaderboard = `
SELECT id, product_text, tagline_text, price, sample_size,
       engagement_rate, conversion_rate, created_at
FROM leaderboard_entries
ORDER BY engagement_rate DESC, conversion_rate DESC, created_at DESC
LIMIT $1`

// LeaderboardRepo implements storage.LeaderboardRepository using PostgreSQL.
type LeaderboardRepo struct {
	db *DB
}

// NewLeaderboardRepo creates a new PostgreSQL leaderboard repository.
func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// Insert saves an entry.
func (r *LeaderboardRepo) Insert(ctx context.Context, entry *domain.LeaderboardEntry) error {
	if err := storage.Prepare(entry, time.Now()); err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, insertLeaderboardEntry, entry); err != nil {
		return fmt.Errorf("failed to insert leaderboard entry: %w", err)
	}
	return nil
}

// Top returns the best ranked entries.
func (r *LeaderboardRepo) Top(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	var entries []*domain.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, selectTopLeaderboard, storage.NormalizeLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	return entries, nil
}

var _ storage.LeaderboardRepository = (*LeaderboardRepo)(nil)
