package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func validScheduleInput() ScheduleInput {
	return ScheduleInput{
		Title:           "Summer arc",
		StartDate:       time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC),
		IncludeWeekdays: true,
		WeekdayWindow: timeslot.Window{
			Start: timeslot.TimeOfDay{Hour: 19},
			End:   timeslot.TimeOfDay{Hour: 23},
		},
		WeekendWindow: timeslot.Window{
			Start: timeslot.TimeOfDay{Hour: 18},
			End:   timeslot.TimeOfDay{Hour: 22},
		},
		DurationHours: 2,
		OverlapHours:  0,
	}
}

func seedCampaignFixture(campaigns *campaignRepoStub, ownerID string) persistence.Campaign {
	campaign := persistence.Campaign{ID: "campaign-1", OwnerID: ownerID, Title: "West Marches"}
	campaigns.seed(campaign)
	return campaign
}

func TestScheduleService_CreateSchedule(t *testing.T) {
	t.Parallel()

	t.Run("persists a collecting schedule with a share token", func(t *testing.T) {
		t.Parallel()

		campaigns := newCampaignRepoStub()
		seedCampaignFixture(campaigns, "organizer-1")
		schedules := newScheduleRepoStub()
		svc := NewScheduleService(schedules, campaigns, func() string { return "schedule-1" }, func() string { return "share-token" }, func() time.Time { return fixedNow })

		schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
			Principal:  Principal{OrganizerID: "organizer-1"},
			CampaignID: "campaign-1",
			Input:      validScheduleInput(),
		})
		if err != nil {
			t.Fatalf("CreateSchedule failed: %v", err)
		}
		if schedule.Status != persistence.StatusCollecting {
			t.Fatalf("expected collecting status, got %q", schedule.Status)
		}
		if schedule.ShareToken != "share-token" {
			t.Fatalf("expected share token, got %q", schedule.ShareToken)
		}
		if _, err := schedules.GetScheduleByToken(context.Background(), "share-token"); err != nil {
			t.Fatalf("expected schedule retrievable by token: %v", err)
		}
	})

	t.Run("rejects campaigns owned by someone else", func(t *testing.T) {
		t.Parallel()

		campaigns := newCampaignRepoStub()
		seedCampaignFixture(campaigns, "someone-else")
		svc := NewScheduleService(newScheduleRepoStub(), campaigns, nil, nil, func() time.Time { return fixedNow })

		_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
			Principal:  Principal{OrganizerID: "organizer-1"},
			CampaignID: "campaign-1",
			Input:      validScheduleInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates configuration invariants", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name   string
			mutate func(*ScheduleInput)
			field  string
		}{
			{"missing title", func(in *ScheduleInput) { in.Title = "  " }, "title"},
			{"end before start", func(in *ScheduleInput) {
				in.EndDate = in.StartDate.AddDate(0, 0, -1)
			}, "end_date"},
			{"start in the past", func(in *ScheduleInput) {
				in.StartDate = fixedNow.AddDate(0, 0, -1)
				in.EndDate = fixedNow.AddDate(0, 0, 1)
			}, "start_date"},
			{"inverted weekday window", func(in *ScheduleInput) {
				in.WeekdayWindow = timeslot.Window{
					Start: timeslot.TimeOfDay{Hour: 22},
					End:   timeslot.TimeOfDay{Hour: 18},
				}
			}, "weekday_window"},
			{"zero-length weekend window", func(in *ScheduleInput) {
				in.WeekendWindow = timeslot.Window{
					Start: timeslot.TimeOfDay{Hour: 18},
					End:   timeslot.TimeOfDay{Hour: 18},
				}
			}, "weekend_window"},
			{"zero duration", func(in *ScheduleInput) { in.DurationHours = 0 }, "duration_hours"},
			{"overlap equal to duration", func(in *ScheduleInput) { in.OverlapHours = in.DurationHours }, "overlap_hours"},
			{"negative overlap", func(in *ScheduleInput) { in.OverlapHours = -1 }, "overlap_hours"},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				campaigns := newCampaignRepoStub()
				seedCampaignFixture(campaigns, "organizer-1")
				svc := NewScheduleService(newScheduleRepoStub(), campaigns, nil, nil, func() time.Time { return fixedNow })

				input := validScheduleInput()
				tc.mutate(&input)

				_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
					Principal:  Principal{OrganizerID: "organizer-1"},
					CampaignID: "campaign-1",
					Input:      input,
				})
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tc.field]; !ok {
					t.Fatalf("expected field error for %s, got %#v", tc.field, vErr.FieldErrors)
				}
			})
		}
	})
}

func TestScheduleService_UpdateSchedule(t *testing.T) {
	t.Parallel()

	setup := func(status string) (*ScheduleService, *scheduleRepoStub) {
		campaigns := newCampaignRepoStub()
		seedCampaignFixture(campaigns, "organizer-1")
		schedules := newScheduleRepoStub()
		schedules.seed(persistence.SessionSchedule{
			ID:         "schedule-1",
			CampaignID: "campaign-1",
			OwnerID:    "organizer-1",
			ShareToken: "share-token",
			Status:     status,
		})
		return NewScheduleService(schedules, campaigns, nil, nil, func() time.Time { return fixedNow }), schedules
	}

	t.Run("replaces configuration while collecting", func(t *testing.T) {
		t.Parallel()

		svc, schedules := setup(persistence.StatusCollecting)
		input := validScheduleInput()
		input.Title = "Renamed arc"

		updated, err := svc.UpdateSchedule(context.Background(), UpdateScheduleParams{
			Principal:  Principal{OrganizerID: "organizer-1"},
			ScheduleID: "schedule-1",
			Input:      input,
		})
		if err != nil {
			t.Fatalf("UpdateSchedule failed: %v", err)
		}
		if updated.Title != "Renamed arc" {
			t.Fatalf("expected updated title, got %q", updated.Title)
		}
		if updated.ShareToken != "share-token" {
			t.Fatalf("expected share token preserved, got %q", updated.ShareToken)
		}
		stored, _ := schedules.GetSchedule(context.Background(), "schedule-1")
		if stored.Title != "Renamed arc" {
			t.Fatalf("expected persisted title, got %q", stored.Title)
		}
	})

	t.Run("rejects reconfiguration after scheduling", func(t *testing.T) {
		t.Parallel()

		svc, _ := setup(persistence.StatusScheduled)
		_, err := svc.UpdateSchedule(context.Background(), UpdateScheduleParams{
			Principal:  Principal{OrganizerID: "organizer-1"},
			ScheduleID: "schedule-1",
			Input:      validScheduleInput(),
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestScheduleService_CloseSchedule(t *testing.T) {
	t.Parallel()

	setup := func(status string) (*ScheduleService, *scheduleRepoStub) {
		campaigns := newCampaignRepoStub()
		seedCampaignFixture(campaigns, "organizer-1")
		schedules := newScheduleRepoStub()
		schedules.seed(persistence.SessionSchedule{
			ID:      "schedule-1",
			OwnerID: "organizer-1",
			Status:  status,
		})
		return NewScheduleService(schedules, campaigns, nil, nil, func() time.Time { return fixedNow }), schedules
	}

	t.Run("moves a collecting poll to closed", func(t *testing.T) {
		t.Parallel()

		svc, schedules := setup(persistence.StatusCollecting)
		closed, err := svc.CloseSchedule(context.Background(), Principal{OrganizerID: "organizer-1"}, "schedule-1")
		if err != nil {
			t.Fatalf("CloseSchedule failed: %v", err)
		}
		if closed.Status != persistence.StatusClosed {
			t.Fatalf("expected closed status, got %q", closed.Status)
		}
		stored, _ := schedules.GetSchedule(context.Background(), "schedule-1")
		if stored.Status != persistence.StatusClosed {
			t.Fatalf("expected persisted closed status, got %q", stored.Status)
		}
	})

	t.Run("loses gracefully to a concurrent transition", func(t *testing.T) {
		t.Parallel()

		svc, _ := setup(persistence.StatusScheduled)
		_, err := svc.CloseSchedule(context.Background(), Principal{OrganizerID: "organizer-1"}, "schedule-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rejects other organizers", func(t *testing.T) {
		t.Parallel()

		svc, _ := setup(persistence.StatusCollecting)
		_, err := svc.CloseSchedule(context.Background(), Principal{OrganizerID: "intruder"}, "schedule-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
