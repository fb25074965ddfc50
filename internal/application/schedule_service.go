package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

// ScheduleService orchestrates validation, authorization, and persistence for
// availability polls and their lifecycle.
type ScheduleService struct {
	schedules      persistence.ScheduleRepository
	campaigns      persistence.CampaignRepository
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules persistence.ScheduleRepository, campaigns persistence.CampaignRepository, idGenerator, tokenGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, campaigns, idGenerator, tokenGenerator, now, nil)
}

// NewScheduleServiceWithLogger constructs a ScheduleService with a specified logger.
func NewScheduleServiceWithLogger(schedules persistence.ScheduleRepository, campaigns persistence.CampaignRepository, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:      schedules,
		campaigns:      campaigns,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

func validateScheduleInput(input ScheduleInput, now time.Time, vErr *ValidationError) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}
	if len(title) > 200 {
		vErr.add("title", "title must be 200 characters or fewer")
	}

	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() {
		if input.EndDate.Format(timeslot.DateFormat) < input.StartDate.Format(timeslot.DateFormat) {
			vErr.add("end_date", "end date must not be before start date")
		}
	}
	if !input.StartDate.IsZero() {
		if input.StartDate.Format(timeslot.DateFormat) < now.Format(timeslot.DateFormat) {
			vErr.add("start_date", "start date must not be in the past")
		}
	}

	if input.WeekdayWindow.End.Minutes() <= input.WeekdayWindow.Start.Minutes() {
		vErr.add("weekday_window", "weekday window end must be after its start")
	}
	if input.WeekendWindow.End.Minutes() <= input.WeekendWindow.Start.Minutes() {
		vErr.add("weekend_window", "weekend window end must be after its start")
	}

	if input.DurationHours < 1 {
		vErr.add("duration_hours", "slot duration must be at least one hour")
	}
	if input.OverlapHours < 0 {
		vErr.add("overlap_hours", "slot overlap must not be negative")
	}
	if input.DurationHours >= 1 && input.OverlapHours >= input.DurationHours {
		vErr.add("overlap_hours", "slot overlap must be strictly less than slot duration")
	}
}

// CreateSchedule validates the poll configuration and persists it in the
// collecting state with a fresh share token.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (persistence.SessionSchedule, error) {
	if s == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.campaigns == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("campaign repository not configured")
	}
	principal := params.Principal
	if principal.OrganizerID == "" {
		return persistence.SessionSchedule{}, ErrUnauthorized
	}

	campaign, err := s.campaigns.GetCampaign(ctx, params.CampaignID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.SessionSchedule{}, ErrNotFound
		}
		return persistence.SessionSchedule{}, err
	}
	if campaign.OwnerID != principal.OrganizerID {
		return persistence.SessionSchedule{}, ErrUnauthorized
	}

	now := s.now()
	vErr := &ValidationError{}
	validateScheduleInput(params.Input, now, vErr)
	if vErr.HasErrors() {
		return persistence.SessionSchedule{}, vErr
	}

	schedule := persistence.SessionSchedule{
		ID:              s.idGenerator(),
		CampaignID:      campaign.ID,
		OwnerID:         principal.OrganizerID,
		Title:           strings.TrimSpace(params.Input.Title),
		ShareToken:      s.tokenGenerator(),
		StartDate:       params.Input.StartDate,
		EndDate:         params.Input.EndDate,
		IncludeWeekdays: params.Input.IncludeWeekdays,
		WeekdayWindow:   params.Input.WeekdayWindow,
		WeekendWindow:   params.Input.WeekendWindow,
		DurationHours:   params.Input.DurationHours,
		OverlapHours:    params.Input.OverlapHours,
		Status:          persistence.StatusCollecting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.schedules == nil {
		return schedule, nil
	}
	if err := s.schedules.CreateSchedule(ctx, schedule); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.SessionSchedule{}, ErrAlreadyExists
		}
		return persistence.SessionSchedule{}, err
	}

	s.loggerWith(ctx, "CreateSchedule",
		"schedule_id", schedule.ID,
		"campaign_id", schedule.CampaignID,
	).InfoContext(ctx, "schedule created")
	return schedule, nil
}

// GetSchedule fetches one schedule, restricted to its owner.
func (s *ScheduleService) GetSchedule(ctx context.Context, principal Principal, id string) (persistence.SessionSchedule, error) {
	if s == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("schedule repository not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.SessionSchedule{}, ErrNotFound
		}
		return persistence.SessionSchedule{}, err
	}
	if schedule.OwnerID != principal.OrganizerID {
		return persistence.SessionSchedule{}, ErrUnauthorized
	}
	return schedule, nil
}

// ListSchedules returns a campaign's polls, restricted to the campaign owner.
func (s *ScheduleService) ListSchedules(ctx context.Context, principal Principal, campaignID string) ([]persistence.SessionSchedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil || s.campaigns == nil {
		return nil, fmt.Errorf("repositories not configured")
	}

	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if campaign.OwnerID != principal.OrganizerID {
		return nil, ErrUnauthorized
	}
	return s.schedules.ListSchedulesForCampaign(ctx, campaignID)
}

// UpdateSchedule replaces a poll's configuration. Only schedules still
// collecting responses may be reconfigured.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (persistence.SessionSchedule, error) {
	if s == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("ScheduleService is nil")
	}

	schedule, err := s.GetSchedule(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return persistence.SessionSchedule{}, err
	}
	if schedule.Status != persistence.StatusCollecting {
		return persistence.SessionSchedule{}, ErrInvalidState
	}

	now := s.now()
	vErr := &ValidationError{}
	validateScheduleInput(params.Input, now, vErr)
	if vErr.HasErrors() {
		return persistence.SessionSchedule{}, vErr
	}

	schedule.Title = strings.TrimSpace(params.Input.Title)
	schedule.StartDate = params.Input.StartDate
	schedule.EndDate = params.Input.EndDate
	schedule.IncludeWeekdays = params.Input.IncludeWeekdays
	schedule.WeekdayWindow = params.Input.WeekdayWindow
	schedule.WeekendWindow = params.Input.WeekendWindow
	schedule.DurationHours = params.Input.DurationHours
	schedule.OverlapHours = params.Input.OverlapHours
	schedule.UpdatedAt = now

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.SessionSchedule{}, ErrNotFound
		}
		return persistence.SessionSchedule{}, err
	}
	return schedule, nil
}

// CloseSchedule moves a collecting poll to the terminal closed state without
// scheduling a session. A concurrent transition loses with ErrInvalidState.
func (s *ScheduleService) CloseSchedule(ctx context.Context, principal Principal, id string) (persistence.SessionSchedule, error) {
	if s == nil {
		return persistence.SessionSchedule{}, fmt.Errorf("ScheduleService is nil")
	}

	schedule, err := s.GetSchedule(ctx, principal, id)
	if err != nil {
		return persistence.SessionSchedule{}, err
	}

	logger := s.loggerWith(ctx, "CloseSchedule", "schedule_id", id)
	if err := s.schedules.TransitionStatus(ctx, id, persistence.StatusCollecting, persistence.StatusClosed); err != nil {
		if errors.Is(err, persistence.ErrStaleStatus) {
			logger.ErrorContext(ctx, "close lost status race", "error", err, "error_kind", ErrorKind(ErrInvalidState))
			return persistence.SessionSchedule{}, ErrInvalidState
		}
		return persistence.SessionSchedule{}, err
	}

	schedule.Status = persistence.StatusClosed
	schedule.UpdatedAt = s.now()
	logger.InfoContext(ctx, "schedule closed")
	return schedule, nil
}

// DeleteSchedule removes a poll and, through cascading deletes, its responses
// and any committed session.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}

	if _, err := s.GetSchedule(ctx, principal, id); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedule(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
