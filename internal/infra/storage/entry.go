package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/adsim/internal/core/domain"
)

// Prepare validates an entry and fills in ID and CreatedAt.
func Prepare(entry *domain.LeaderboardEntry, now time.Time) error {
	switch {
	case entry == nil:
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	case strings.TrimSpace(entry.ProductText) == "":
		return fmt.Errorf("%w: productText is required", ErrInvalidEntry)
	case strings.TrimSpace(entry.TaglineText) == "":
		return fmt.Errorf("%w: taglineText is required", ErrInvalidEntry)
	case entry.Price <= 0:
		return fmt.Errorf("%w: price must be greater than zero", ErrInvalidEntry)
	case entry.SampleSize < 1:
		return fmt.Errorf("%w: sampleSize must be at least 1", ErrInvalidEntry)
	case !isRate(entry.EngagementRate) || !isRate(entry.ConversionRate):
		return fmt.Errorf("%w: rates must be between 0 and 1", ErrInvalidEntry)
	case entry.ConversionRate > entry.EngagementRate:
		return fmt.Errorf("%w: conversionRate cannot exceed engagementRate", ErrInvalidEntry)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now.UTC()
	}
	return nil
}

func isRate(v float64) bool {
	return v >= 0 && v <= 1
}

// Less orders entries for Top.
func Less(a, b *domain.LeaderboardEntry) bool {
	if a.EngagementRate != b.EngagementRate {
		return a.EngagementRate > b.EngagementRate
	}
	if a.ConversionRate != b.ConversionRate {
		return a.ConversionRate > b.ConversionRate
	}
	return a.CreatedAt.After(b.CreatedAt)
}
