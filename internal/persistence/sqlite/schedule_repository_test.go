package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/session-scheduler/internal/persistence"
)

func TestScheduleRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	seeded := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)

	repo := NewScheduleRepository(pool)

	got, err := repo.GetSchedule(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != seeded.Title || got.ShareToken != seeded.ShareToken {
		t.Fatalf("unexpected schedule: %+v", got)
	}
	if !got.StartDate.Equal(seeded.StartDate) || !got.EndDate.Equal(seeded.EndDate) {
		t.Fatalf("date range did not round trip: %+v", got)
	}
	if got.WeekendWindow != seeded.WeekendWindow {
		t.Fatalf("weekend window did not round trip: %+v", got.WeekendWindow)
	}
	if got.Status != persistence.StatusCollecting {
		t.Fatalf("unexpected status %q", got.Status)
	}
}

func TestScheduleRepository_GetByToken(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	seeded := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)

	repo := NewScheduleRepository(pool)

	got, err := repo.GetScheduleByToken(context.Background(), seeded.ShareToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("expected schedule %q, got %q", seeded.ID, got.ID)
	}

	if _, err := repo.GetScheduleByToken(context.Background(), "unknown-token"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestScheduleRepository_DuplicateTokenRejected(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	seeded := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)

	duplicate := seeded
	duplicate.ID = "sched-2"

	err := NewScheduleRepository(pool).CreateSchedule(context.Background(), duplicate)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestScheduleRepository_TransitionStatus(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	seeded := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)

	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	if err := repo.TransitionStatus(ctx, seeded.ID, persistence.StatusCollecting, persistence.StatusClosed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := repo.TransitionStatus(ctx, seeded.ID, persistence.StatusCollecting, persistence.StatusScheduled)
	if !errors.Is(err, persistence.ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}

	got, err := repo.GetSchedule(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != persistence.StatusClosed {
		t.Fatalf("expected status closed, got %q", got.Status)
	}
}

func TestScheduledSessionRepository_CommitIsSingleWinner(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	schedule := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)
	response := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", map[string][]string{
		"2024-06-07": {"18:00 - 20:00"},
	})

	repo := NewScheduledSessionRepository(pool)
	ctx := context.Background()

	commit := func(id string) error {
		return repo.CommitSession(ctx, persistence.ScheduledSession{
			ID:            id,
			ScheduleID:    schedule.ID,
			ScheduledAt:   testTime,
			DurationHours: 2,
			AttendeeIDs:   []string{response.ID},
			CreatedAt:     testTime,
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []string{"sess-a", "sess-b"} {
		wg.Add(1)
		go func(idx int, sessionID string) {
			defer wg.Done()
			results[idx] = commit(sessionID)
		}(i, id)
	}
	wg.Wait()

	var winners, stale int
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, persistence.ErrStaleStatus):
			stale++
		default:
			t.Fatalf("unexpected commit error: %v", err)
		}
	}
	if winners != 1 || stale != 1 {
		t.Fatalf("expected exactly one winner and one stale loser, got %d/%d", winners, stale)
	}

	session, err := repo.GetSessionForSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(session.AttendeeIDs) != 1 || session.AttendeeIDs[0] != response.ID {
		t.Fatalf("unexpected attendees: %v", session.AttendeeIDs)
	}
}
