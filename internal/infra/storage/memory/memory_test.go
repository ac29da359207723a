package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/infra/storage"
)

func entry(product string, engagement, conversion float64) *domain.LeaderboardEntry {
	return &domain.LeaderboardEntry{
		ProductText:    product,
		TaglineText:    "tagline",
		Price:          10,
		SampleSize:     20,
		EngagementRate: engagement,
		ConversionRate: conversion,
	}
}

func TestLeaderboardRepo_InsertAssignsDefaults(t *testing.T) {
	repo := NewLeaderboardRepo(NewMemoryStorage())
	e := entry("kettle", 0.5, 0.1)

	if err := repo.Insert(context.Background(), e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp, got %+v", e)
	}
}

func TestLeaderboardRepo_InsertRejectsInvalid(t *testing.T) {
	repo := NewLeaderboardRepo(NewMemoryStorage())

	tests := []struct {
		name  string
		entry *domain.LeaderboardEntry
	}{
		{"nil", nil},
		{"no product", entry("", 0.5, 0.1)},
		{"rate above one", entry("x", 1.5, 0.1)},
		{"conversion above engagement", entry("x", 0.2, 0.3)},
		{"zero sample", func() *domain.LeaderboardEntry { e := entry("x", 0.5, 0.1); e.SampleSize = 0; return e }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Insert(context.Background(), tt.entry); !errors.Is(err, storage.ErrInvalidEntry) {
				t.Errorf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}
}

func TestLeaderboardRepo_TopOrdering(t *testing.T) {
	repo := NewLeaderboardRepo(NewMemoryStorage())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	for _, e := range []*domain.LeaderboardEntry{
		entry("low", 0.2, 0.1),
		entry("high-low-conv", 0.8, 0.1),
		entry("high-high-conv", 0.8, 0.4),
		entry("mid", 0.5, 0.2),
		entry("mid-newer", 0.5, 0.2),
	} {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	top, err := repo.Top(ctx, 4)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	want := []string{"high-high-conv", "high-low-conv", "mid-newer", "mid"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, w := range want {
		if top[i].ProductText != w {
			t.Errorf("position %d = %s, want %s", i, top[i].ProductText, w)
		}
	}
}

func TestLeaderboardRepo_TopReturnsCopies(t *testing.T) {
	repo := NewLeaderboardRepo(NewMemoryStorage())
	ctx := context.Background()
	_ = repo.Insert(ctx, entry("kettle", 0.5, 0.1))

	top, _ := repo.Top(ctx, 0)
	top[0].ProductText = "changed"

	again, _ := repo.Top(ctx, 0)
	if again[0].ProductText != "kettle" {
		t.Error("Top must not expose stored entries")
	}
}
