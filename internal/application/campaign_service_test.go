package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

func TestCampaignService_CreateCampaign(t *testing.T) {
	t.Parallel()

	t.Run("persists a campaign for the acting organizer", func(t *testing.T) {
		t.Parallel()

		campaigns := newCampaignRepoStub()
		svc := NewCampaignService(campaigns, func() string { return "campaign-1" }, func() time.Time { return fixedNow })

		campaign, err := svc.CreateCampaign(context.Background(), Principal{OrganizerID: "organizer-1"}, CampaignInput{
			Title:       "  West Marches  ",
			Description: "Sandbox hexcrawl",
		})
		if err != nil {
			t.Fatalf("CreateCampaign failed: %v", err)
		}
		if campaign.Title != "West Marches" {
			t.Fatalf("expected trimmed title, got %q", campaign.Title)
		}
		if campaign.Description == nil || *campaign.Description != "Sandbox hexcrawl" {
			t.Fatalf("unexpected description %#v", campaign.Description)
		}
		if campaign.OwnerID != "organizer-1" {
			t.Fatalf("expected owner organizer-1, got %q", campaign.OwnerID)
		}
	})

	t.Run("rejects missing titles", func(t *testing.T) {
		t.Parallel()

		svc := NewCampaignService(newCampaignRepoStub(), nil, nil)
		_, err := svc.CreateCampaign(context.Background(), Principal{OrganizerID: "organizer-1"}, CampaignInput{Title: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		t.Parallel()

		svc := NewCampaignService(newCampaignRepoStub(), nil, nil)
		if _, err := svc.CreateCampaign(context.Background(), Principal{}, CampaignInput{Title: "Nope"}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestCampaignService_Ownership(t *testing.T) {
	t.Parallel()

	campaigns := newCampaignRepoStub()
	campaigns.seed(persistence.Campaign{ID: "campaign-1", OwnerID: "organizer-1", Title: "Owned"})
	svc := NewCampaignService(campaigns, nil, func() time.Time { return fixedNow })

	t.Run("owner can read", func(t *testing.T) {
		t.Parallel()

		campaign, err := svc.GetCampaign(context.Background(), Principal{OrganizerID: "organizer-1"}, "campaign-1")
		if err != nil {
			t.Fatalf("GetCampaign failed: %v", err)
		}
		if campaign.Title != "Owned" {
			t.Fatalf("unexpected campaign %#v", campaign)
		}
	})

	t.Run("others are rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := svc.GetCampaign(context.Background(), Principal{OrganizerID: "intruder"}, "campaign-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("missing campaigns map to ErrNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := svc.GetCampaign(context.Background(), Principal{OrganizerID: "organizer-1"}, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCampaignService_UpdateCampaign(t *testing.T) {
	t.Parallel()

	campaigns := newCampaignRepoStub()
	campaigns.seed(persistence.Campaign{ID: "campaign-1", OwnerID: "organizer-1", Title: "Before"})
	svc := NewCampaignService(campaigns, nil, func() time.Time { return fixedNow })

	updated, err := svc.UpdateCampaign(context.Background(), Principal{OrganizerID: "organizer-1"}, "campaign-1", CampaignInput{Title: "After"})
	if err != nil {
		t.Fatalf("UpdateCampaign failed: %v", err)
	}
	if updated.Title != "After" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.Description != nil {
		t.Fatalf("expected description cleared when omitted, got %#v", updated.Description)
	}
}
