package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// CampaignService orchestrates validation, authorization, and persistence for
// campaigns.
type CampaignService struct {
	campaigns   persistence.CampaignRepository
	idGenerator func() string
	now         func() time.Time
}

// NewCampaignService wires dependencies for campaign operations.
func NewCampaignService(campaigns persistence.CampaignRepository, idGenerator func() string, now func() time.Time) *CampaignService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CampaignService{campaigns: campaigns, idGenerator: idGenerator, now: now}
}

// CreateCampaign validates input and persists a new campaign for the acting
// organizer.
func (s *CampaignService) CreateCampaign(ctx context.Context, principal Principal, input CampaignInput) (persistence.Campaign, error) {
	if s == nil {
		return persistence.Campaign{}, fmt.Errorf("CampaignService is nil")
	}
	if principal.OrganizerID == "" {
		return persistence.Campaign{}, ErrUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	vErr := &ValidationError{}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if len(title) > 200 {
		vErr.add("title", "title must be 200 characters or fewer")
	}
	if vErr.HasErrors() {
		return persistence.Campaign{}, vErr
	}

	now := s.now()
	campaign := persistence.Campaign{
		ID:        s.idGenerator(),
		OwnerID:   principal.OrganizerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		campaign.Description = &description
	}

	if s.campaigns == nil {
		return campaign, nil
	}
	if err := s.campaigns.CreateCampaign(ctx, campaign); err != nil {
		return persistence.Campaign{}, err
	}
	return campaign, nil
}

// GetCampaign fetches one campaign, restricted to its owner.
func (s *CampaignService) GetCampaign(ctx context.Context, principal Principal, id string) (persistence.Campaign, error) {
	if s == nil {
		return persistence.Campaign{}, fmt.Errorf("CampaignService is nil")
	}
	if s.campaigns == nil {
		return persistence.Campaign{}, fmt.Errorf("campaign repository not configured")
	}

	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Campaign{}, ErrNotFound
		}
		return persistence.Campaign{}, err
	}
	if campaign.OwnerID != principal.OrganizerID {
		return persistence.Campaign{}, ErrUnauthorized
	}
	return campaign, nil
}

// ListCampaigns returns the acting organizer's campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, principal Principal) ([]persistence.Campaign, error) {
	if s == nil {
		return nil, fmt.Errorf("CampaignService is nil")
	}
	if s.campaigns == nil {
		return nil, fmt.Errorf("campaign repository not configured")
	}
	if principal.OrganizerID == "" {
		return nil, ErrUnauthorized
	}
	return s.campaigns.ListCampaignsByOwner(ctx, principal.OrganizerID)
}

// UpdateCampaign validates input and updates an existing campaign.
func (s *CampaignService) UpdateCampaign(ctx context.Context, principal Principal, id string, input CampaignInput) (persistence.Campaign, error) {
	if s == nil {
		return persistence.Campaign{}, fmt.Errorf("CampaignService is nil")
	}

	campaign, err := s.GetCampaign(ctx, principal, id)
	if err != nil {
		return persistence.Campaign{}, err
	}

	title := strings.TrimSpace(input.Title)
	vErr := &ValidationError{}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if len(title) > 200 {
		vErr.add("title", "title must be 200 characters or fewer")
	}
	if vErr.HasErrors() {
		return persistence.Campaign{}, vErr
	}

	campaign.Title = title
	campaign.Description = nil
	if description := strings.TrimSpace(input.Description); description != "" {
		campaign.Description = &description
	}
	campaign.UpdatedAt = s.now()

	if err := s.campaigns.UpdateCampaign(ctx, campaign); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Campaign{}, ErrNotFound
		}
		return persistence.Campaign{}, err
	}
	return campaign, nil
}

// DeleteCampaign removes a campaign and, through cascading deletes, its
// schedules and their responses.
func (s *CampaignService) DeleteCampaign(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("CampaignService is nil")
	}

	if _, err := s.GetCampaign(ctx, principal, id); err != nil {
		return err
	}
	if err := s.campaigns.DeleteCampaign(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
