package application

import (
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/availability"
)

func TestRankingCache(t *testing.T) {
	t.Parallel()

	current := time.Now()
	now := func() time.Time { return current }
	slots := []availability.PopularSlot{{Date: "2024-06-07", Label: "18:00 - 20:00", Count: 2}}

	t.Run("stores and returns entries until the TTL lapses", func(t *testing.T) {
		cache := newRankingCache(time.Minute, 4, now)
		cache.Store("schedule-1", slots)

		got, ok := cache.Get("schedule-1")
		if !ok || len(got) != 1 || got[0].Count != 2 {
			t.Fatalf("expected cached ranking, got %v (%t)", got, ok)
		}

		current = current.Add(2 * time.Minute)
		if _, ok := cache.Get("schedule-1"); ok {
			t.Fatalf("expected entry to expire")
		}
		current = current.Add(-2 * time.Minute)
	})

	t.Run("invalidate drops only the named schedule", func(t *testing.T) {
		cache := newRankingCache(time.Minute, 4, now)
		cache.Store("schedule-1", slots)
		cache.Store("schedule-2", slots)

		cache.Invalidate("schedule-1")
		if _, ok := cache.Get("schedule-1"); ok {
			t.Fatalf("expected schedule-1 dropped")
		}
		if _, ok := cache.Get("schedule-2"); !ok {
			t.Fatalf("expected schedule-2 retained")
		}
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		cache := newRankingCache(time.Minute, 4, now)
		cache.Store("schedule-1", slots)

		got, _ := cache.Get("schedule-1")
		got[0].Count = 99

		again, _ := cache.Get("schedule-1")
		if again[0].Count != 2 {
			t.Fatalf("expected cache to be isolated from caller mutation, got %d", again[0].Count)
		}
	})

	t.Run("evicts when full", func(t *testing.T) {
		cache := newRankingCache(time.Minute, 1, now)
		cache.Store("schedule-1", slots)
		cache.Store("schedule-2", slots)
		if len(cache.entries) != 1 {
			t.Fatalf("expected bounded cache, got %d entries", len(cache.entries))
		}
	})
}
