package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/storage"
)

type MemoryStorage struct {
	leaderboard []*domain.LeaderboardEntry
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// -----------------------------------------------------------------------------
// Leaderboard Repository
// -----------------------------------------------------------------------------

type LeaderboardRepo struct {
	store *MemoryStorage
	now   func() time.Time
}

func NewLeaderboardRepo(store *MemoryStorage) *LeaderboardRepo {
	return &LeaderboardRepo{store: store, now: time.Now}
}

func (r *LeaderboardRepo) Insert(ctx context.Context, entry *domain.LeaderboardEntry) error {
	if err := storage.Prepare(entry, r.now()); err != nil {
		return err
	}
	stored := *entry

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.leaderboard = append(r.store.leaderboard, &stored)
	return nil
}

func (r *LeaderboardRepo) Top(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	limit = storage.NormalizeLimit(limit)

	r.store.mu.RLock()
	entries := make([]*domain.LeaderboardEntry, 0, len(r.store.leaderboard))
	for _, e := range r.store.leaderboard {
		c := *e
		entries = append(entries, &c)
	}
	r.store.mu.RUnlock()

	slices.SortStableFunc(entries, func(a, b *domain.LeaderboardEntry) int {
		switch {
		case storage.Less(a, b):
			return -1
		case storage.Less(b, a):
			return 1
		}
		return 0
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

var _ storage.LeaderboardRepository = (*LeaderboardRepo)(nil)
