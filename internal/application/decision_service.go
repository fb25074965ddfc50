package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/availability"
	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

// SessionNotifier delivers the confirmation message sent to each attendee
// when a session is committed.
type SessionNotifier interface {
	NotifySessionScheduled(ctx context.Context, recipient string, schedule persistence.SessionSchedule, session persistence.ScheduledSession) error
}

// DecisionService builds the organizer's aggregation overview and commits the
// final scheduling decision.
type DecisionService struct {
	schedules   persistence.ScheduleRepository
	responses   persistence.AvailabilityRepository
	sessions    persistence.ScheduledSessionRepository
	notifier    SessionNotifier
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	rankings    *rankingCache
	logger      *slog.Logger
}

// NewDecisionService wires dependencies for aggregation and commit.
func NewDecisionService(schedules persistence.ScheduleRepository, responses persistence.AvailabilityRepository, sessions persistence.ScheduledSessionRepository, notifier SessionNotifier, location *time.Location, idGenerator func() string, now func() time.Time) *DecisionService {
	return NewDecisionServiceWithLogger(schedules, responses, sessions, notifier, location, idGenerator, now, nil)
}

// NewDecisionServiceWithLogger constructs a DecisionService with a specified logger.
func NewDecisionServiceWithLogger(schedules persistence.ScheduleRepository, responses persistence.AvailabilityRepository, sessions persistence.ScheduledSessionRepository, notifier SessionNotifier, location *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DecisionService {
	if location == nil {
		location = time.UTC
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DecisionService{
		schedules:   schedules,
		responses:   responses,
		sessions:    sessions,
		notifier:    notifier,
		location:    location,
		idGenerator: idGenerator,
		now:         now,
		rankings:    newRankingCache(0, 0, now),
		logger:      defaultLogger(logger),
	}
}

func (s *DecisionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DecisionService", operation, attrs...)
}

// InvalidateRanking drops the cached popular-slot ranking for one schedule.
// Wired into the respondent write path so overviews never serve stale counts.
func (s *DecisionService) InvalidateRanking(scheduleID string) {
	if s == nil {
		return
	}
	s.rankings.Invalidate(scheduleID)
}

func (s *DecisionService) ownedSchedule(ctx context.Context, principal Principal, scheduleID string) (persistence.SessionSchedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
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

// Overview assembles the organizer's decision-support view: deduplicated
// responses, the dense per-date grid, and the top ranked slots.
func (s *DecisionService) Overview(ctx context.Context, principal Principal, scheduleID string) (AggregationView, error) {
	if s == nil {
		return AggregationView{}, fmt.Errorf("DecisionService is nil")
	}
	if s.schedules == nil || s.responses == nil {
		return AggregationView{}, fmt.Errorf("repositories not configured")
	}

	schedule, err := s.ownedSchedule(ctx, principal, scheduleID)
	if err != nil {
		return AggregationView{}, err
	}

	stored, err := s.responses.ListResponsesForSchedule(ctx, scheduleID)
	if err != nil {
		return AggregationView{}, err
	}

	cfg := slotConfig(schedule)
	dateList := timeslot.DateRange(cfg)
	dates := make([]string, 0, len(dateList))
	for _, date := range dateList {
		dates = append(dates, date.Format(timeslot.DateFormat))
	}

	latest := availability.LatestResponses(toAggregationResponses(stored))

	popular, cached := s.rankings.Get(scheduleID)
	if !cached {
		popular = availability.RankPopularSlots(dates, timeslot.AllSlotsByDate(cfg), latest, availability.DefaultRankingLimit)
		s.rankings.Store(scheduleID, popular)
	}

	return AggregationView{
		Schedule:     schedule,
		Responses:    latest,
		Grid:         availability.BuildGrid(dates, latest),
		PopularSlots: popular,
		CanSchedule:  schedule.Status == persistence.StatusCollecting && len(stored) > 0,
	}, nil
}

// RemoveResponse deletes one respondent's record from a poll that is still
// collecting. Organizer housekeeping for duplicate or unwanted submissions.
func (s *DecisionService) RemoveResponse(ctx context.Context, principal Principal, scheduleID, responseID string) (err error) {
	if s == nil {
		return fmt.Errorf("DecisionService is nil")
	}
	if s.schedules == nil || s.responses == nil {
		return fmt.Errorf("repositories not configured")
	}

	logger := s.loggerWith(ctx, "RemoveResponse",
		"schedule_id", scheduleID,
		"response_id", responseID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "remove response failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "response removed")
	}()

	schedule, err := s.ownedSchedule(ctx, principal, scheduleID)
	if err != nil {
		return err
	}
	if schedule.Status != persistence.StatusCollecting {
		return ErrInvalidState
	}

	stored, err := s.responses.ListResponsesForSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	found := false
	for _, response := range stored {
		if response.ID == responseID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	if err := s.responses.DeleteResponse(ctx, responseID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.rankings.Invalidate(scheduleID)
	return nil
}

// GetScheduledSession returns the committed session for a schedule, when one
// exists.
func (s *DecisionService) GetScheduledSession(ctx context.Context, principal Principal, scheduleID string) (persistence.ScheduledSession, error) {
	if s == nil {
		return persistence.ScheduledSession{}, fmt.Errorf("DecisionService is nil")
	}
	if s.schedules == nil || s.sessions == nil {
		return persistence.ScheduledSession{}, fmt.Errorf("repositories not configured")
	}

	if _, err := s.ownedSchedule(ctx, principal, scheduleID); err != nil {
		return persistence.ScheduledSession{}, err
	}

	session, err := s.sessions.GetSessionForSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ScheduledSession{}, ErrNotFound
		}
		return persistence.ScheduledSession{}, err
	}
	return session, nil
}

// CommitSchedule locks in the organizer's chosen date and slot. The schedule
// moves to the scheduled state atomically with the session insert, so of two
// concurrent commits exactly one succeeds; the loser receives ErrInvalidState.
// A schedule nobody has responded to cannot be committed. Attendees are every
// respondent whose selections include the chosen slot.
func (s *DecisionService) CommitSchedule(ctx context.Context, params CommitScheduleParams) (result persistence.ScheduledSession, err error) {
	if s == nil {
		err = fmt.Errorf("DecisionService is nil")
		return
	}
	if s.schedules == nil || s.responses == nil || s.sessions == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "CommitSchedule",
		"schedule_id", params.ScheduleID,
		"date", params.Date,
		"label", params.SlotLabel,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "commit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.ID,
			"scheduled_at", result.ScheduledAt,
			"attendees", len(result.AttendeeIDs),
		).InfoContext(ctx, "session scheduled")
	}()

	var schedule persistence.SessionSchedule
	schedule, err = s.ownedSchedule(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return
	}
	if schedule.Status != persistence.StatusCollecting {
		err = ErrInvalidState
		return
	}

	var stored []persistence.AvailabilityResponse
	stored, err = s.responses.ListResponsesForSchedule(ctx, params.ScheduleID)
	if err != nil {
		return
	}
	if len(stored) == 0 {
		err = ErrInvalidState
		return
	}

	vErr := &ValidationError{}
	date := strings.TrimSpace(params.Date)
	label := strings.TrimSpace(params.SlotLabel)
	if date == "" {
		vErr.add("date", "date is required")
	}
	if label == "" {
		vErr.add("slot_label", "slot label is required")
	}

	var day time.Time
	if date != "" {
		day, err = time.ParseInLocation(timeslot.DateFormat, date, s.location)
		if err != nil {
			vErr.add("date", "date must use the YYYY-MM-DD form")
			err = nil
		}
	}
	var start timeslot.TimeOfDay
	if label != "" {
		start, _, err = timeslot.ParseLabel(label)
		if err != nil {
			vErr.add("slot_label", "slot label must use the HH:MM - HH:MM form")
			err = nil
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	duration := params.DurationHours
	if duration <= 0 {
		duration = schedule.DurationHours
	}

	attendees := make([]persistence.AvailabilityResponse, 0, len(stored))
	attendeeIDs := make([]string, 0, len(stored))
	for _, response := range stored {
		if selectionContains(response.Selections[date], label) {
			attendees = append(attendees, response)
			attendeeIDs = append(attendeeIDs, response.ID)
		}
	}

	session := persistence.ScheduledSession{
		ID:            s.idGenerator(),
		ScheduleID:    schedule.ID,
		ScheduledAt:   time.Date(day.Year(), day.Month(), day.Day(), start.Hour, start.Minute, 0, 0, s.location),
		DurationHours: duration,
		AttendeeIDs:   attendeeIDs,
		CreatedAt:     s.now(),
	}

	if err = s.sessions.CommitSession(ctx, session); err != nil {
		if errors.Is(err, persistence.ErrStaleStatus) {
			err = ErrInvalidState
		}
		return
	}

	schedule.Status = persistence.StatusScheduled
	s.notifyAttendees(ctx, logger, schedule, session, attendees)

	result = session
	return
}

// notifyAttendees sends confirmations best effort: a delivery failure is
// logged and never unwinds an already committed session.
func (s *DecisionService) notifyAttendees(ctx context.Context, logger *slog.Logger, schedule persistence.SessionSchedule, session persistence.ScheduledSession, attendees []persistence.AvailabilityResponse) {
	if s.notifier == nil {
		return
	}
	for _, attendee := range attendees {
		if attendee.Email == "" {
			continue
		}
		if err := s.notifier.NotifySessionScheduled(ctx, attendee.Email, schedule, session); err != nil {
			logger.WarnContext(ctx, "attendee notification failed",
				"recipient", attendee.Email,
				"error", err,
			)
		}
	}
}

func selectionContains(labels []string, label string) bool {
	for _, candidate := range labels {
		if candidate == label {
			return true
		}
	}
	return false
}
