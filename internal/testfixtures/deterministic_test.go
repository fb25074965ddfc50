package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Parallel()

	t.Run("zero start falls back to the reference time", func(t *testing.T) {
		t.Parallel()

		clock := NewClock(time.Time{})
		if !clock.Now().Equal(ReferenceTime()) {
			t.Fatalf("expected %v, got %v", ReferenceTime(), clock.Now())
		}
	})

	t.Run("injected NowFunc tracks Advance and Set", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, time.June, 7, 18, 0, 0, 0, time.UTC)
		clock := NewClock(start)
		now := clock.NowFunc()

		if got := clock.Advance(2 * time.Hour); !got.Equal(start.Add(2 * time.Hour)) {
			t.Fatalf("Advance returned %v", got)
		}
		if !now().Equal(start.Add(2 * time.Hour)) {
			t.Fatalf("NowFunc lagged behind Advance: %v", now())
		}

		clock.Set(start.Add(24 * time.Hour))
		if !now().Equal(start.Add(24 * time.Hour)) {
			t.Fatalf("NowFunc lagged behind Set: %v", now())
		}
	})
}

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("schedule")
	if first, second := gen.Next(), gen.Next(); first != "schedule-1" || second != "schedule-2" {
		t.Fatalf("unexpected sequence: %q, %q", first, second)
	}

	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("expected the default prefix, got %q", got)
	}
}
