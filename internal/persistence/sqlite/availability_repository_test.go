package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

func availabilityFixture(t *testing.T) (*ConnectionPool, persistence.SessionSchedule) {
	t.Helper()
	pool := openTestPool(t)
	organizer := seedOrganizer(t, pool, "org-1")
	campaign := seedCampaign(t, pool, "camp-1", organizer.ID)
	schedule := seedSchedule(t, pool, "sched-1", campaign.ID, organizer.ID)
	return pool, schedule
}

func TestAvailabilityRepository_UniquePerScheduleAndEmail(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", nil)

	err := NewAvailabilityRepository(pool).CreateResponse(context.Background(), persistence.AvailabilityResponse{
		ID:         "resp-2",
		ScheduleID: schedule.ID,
		Email:      "Alice@Example.com", // same respondent, different casing
		PlayerName: "Alice",
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAvailabilityRepository_GetResponseNormalizesEmail(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", map[string][]string{
		"2024-06-07": {"18:00 - 20:00"},
	})

	got, err := NewAvailabilityRepository(pool).GetResponse(context.Background(), schedule.ID, " Alice@Example.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("expected response %q, got %q", seeded.ID, got.ID)
	}
	if !reflect.DeepEqual(got.Selections["2024-06-07"], []string{"18:00 - 20:00"}) {
		t.Fatalf("selections did not round trip: %v", got.Selections)
	}
}

func TestAvailabilityRepository_ToggleSlotRoundTrip(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", nil)

	repo := NewAvailabilityRepository(pool)
	ctx := context.Background()

	selected, err := repo.ToggleSlot(ctx, seeded.ID, "2024-06-07", "18:00 - 20:00", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !selected {
		t.Fatal("expected first toggle to select the slot")
	}

	selected, err = repo.ToggleSlot(ctx, seeded.ID, "2024-06-07", "18:00 - 20:00", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected {
		t.Fatal("expected second toggle to deselect the slot")
	}

	got, err := repo.GetResponse(ctx, schedule.ID, seeded.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Selections["2024-06-07"]) != 0 {
		t.Fatalf("expected selections back to original state, got %v", got.Selections)
	}
}

func TestAvailabilityRepository_MergeSelectionsLeavesOtherDatesAlone(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", map[string][]string{
		"2024-06-07": {"18:00 - 20:00"},
		"2024-06-08": {"20:00 - 22:00"},
	})

	repo := NewAvailabilityRepository(pool)
	ctx := context.Background()

	err := repo.MergeSelections(ctx, seeded.ID, map[string][]string{
		"2024-06-08": {"18:00 - 20:00"},
		"2024-06-09": {"18:00 - 20:00"},
	}, testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetResponse(ctx, schedule.ID, seeded.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string][]string{
		"2024-06-07": {"18:00 - 20:00"},
		"2024-06-08": {"18:00 - 20:00"},
		"2024-06-09": {"18:00 - 20:00"},
	}
	if !reflect.DeepEqual(got.Selections, want) {
		t.Fatalf("expected %v, got %v", want, got.Selections)
	}
}

func TestAvailabilityRepository_MergeEmptyListClearsDate(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", map[string][]string{
		"2024-06-07": {"18:00 - 20:00"},
	})

	repo := NewAvailabilityRepository(pool)
	ctx := context.Background()

	if err := repo.MergeSelections(ctx, seeded.ID, map[string][]string{"2024-06-07": nil}, testTime.Add(time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetResponse(ctx, schedule.ID, seeded.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Selections) != 0 {
		t.Fatalf("expected cleared selections, got %v", got.Selections)
	}
}

func TestAvailabilityRepository_CascadeDeleteWithSchedule(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", nil)

	if err := NewScheduleRepository(pool).DeleteSchedule(context.Background(), schedule.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := NewAvailabilityRepository(pool).GetResponse(context.Background(), schedule.ID, seeded.Email)
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cascade delete, got %v", err)
	}
}

func TestAvailabilityRepository_DeleteResponse(t *testing.T) {
	t.Parallel()

	pool, schedule := availabilityFixture(t)
	seeded := seedResponse(t, pool, "resp-1", schedule.ID, "alice@example.com", nil)

	repo := NewAvailabilityRepository(pool)
	ctx := context.Background()

	if err := repo.DeleteResponse(ctx, seeded.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetResponse(ctx, schedule.ID, seeded.Email); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteResponse(ctx, seeded.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a second delete, got %v", err)
	}
}
