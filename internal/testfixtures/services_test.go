package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/application"
	"github.com/example/session-scheduler/internal/persistence"
)

type capturingScheduleRepo struct {
	created persistence.SessionSchedule
}

func (c *capturingScheduleRepo) CreateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	c.created = schedule
	return nil
}

func (c *capturingScheduleRepo) GetSchedule(ctx context.Context, id string) (persistence.SessionSchedule, error) {
	if id == c.created.ID {
		return c.created, nil
	}
	return persistence.SessionSchedule{}, persistence.ErrNotFound
}

func (c *capturingScheduleRepo) GetScheduleByToken(ctx context.Context, token string) (persistence.SessionSchedule, error) {
	return persistence.SessionSchedule{}, persistence.ErrNotFound
}

func (c *capturingScheduleRepo) ListSchedulesForCampaign(ctx context.Context, campaignID string) ([]persistence.SessionSchedule, error) {
	return nil, nil
}

func (c *capturingScheduleRepo) UpdateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	c.created = schedule
	return nil
}

func (c *capturingScheduleRepo) TransitionStatus(ctx context.Context, scheduleID, fromStatus, toStatus string) error {
	return nil
}

func (c *capturingScheduleRepo) DeleteSchedule(ctx context.Context, id string) error {
	return nil
}

type singleCampaignRepo struct {
	campaign persistence.Campaign
}

func (s *singleCampaignRepo) CreateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	return nil
}

func (s *singleCampaignRepo) GetCampaign(ctx context.Context, id string) (persistence.Campaign, error) {
	if id == s.campaign.ID {
		return s.campaign, nil
	}
	return persistence.Campaign{}, persistence.ErrNotFound
}

func (s *singleCampaignRepo) ListCampaignsByOwner(ctx context.Context, ownerID string) ([]persistence.Campaign, error) {
	return []persistence.Campaign{s.campaign}, nil
}

func (s *singleCampaignRepo) UpdateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	return nil
}

func (s *singleCampaignRepo) DeleteCampaign(ctx context.Context, id string) error {
	return nil
}

func TestServiceFactoryNewScheduleService(t *testing.T) {
	organizer := NewOrganizerFixture()
	campaign := NewCampaignFixture(WithCampaignOwner(organizer.ID))
	factory := NewServiceFactory(WithFactoryClock(NewClock(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))))

	schedules := &capturingScheduleRepo{}
	campaigns := &singleCampaignRepo{campaign: campaign.Persistence()}
	svc := factory.NewScheduleService(ScheduleServiceDeps{Schedules: schedules, Campaigns: campaigns})

	template := NewScheduleFixture()
	created, err := svc.CreateSchedule(context.Background(), application.CreateScheduleParams{
		Principal:  organizer.Principal(),
		CampaignID: campaign.ID,
		Input: application.ScheduleInput{
			Title:         template.Title,
			StartDate:     template.StartDate,
			EndDate:       template.EndDate,
			WeekdayWindow: template.WeekdayWindow,
			WeekendWindow: template.WeekendWindow,
			DurationHours: template.DurationHours,
			OverlapHours:  template.OverlapHours,
		},
	})
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}

	if created.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", created.ID)
	}
	if created.ShareToken != "share-token-1" {
		t.Fatalf("expected share token share-token-1, got %q", created.ShareToken)
	}
	if schedules.created.ID != created.ID {
		t.Fatalf("repository received unexpected ID: %q", schedules.created.ID)
	}
	if !created.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), created.CreatedAt)
	}
}
