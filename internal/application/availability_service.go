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

// DefaultPlayerName is recorded when a respondent submits without a display
// name.
const DefaultPlayerName = "Anonymous"

// AvailabilityService handles the anonymous respondent flow: rendering the
// poll, full-form submissions, and per-slot toggles, all keyed by the
// schedule's share token.
type AvailabilityService struct {
	schedules         persistence.ScheduleRepository
	responses         persistence.AvailabilityRepository
	idGenerator       func() string
	now               func() time.Time
	invalidateRanking func(scheduleID string)
	logger            *slog.Logger
}

// NewAvailabilityService wires dependencies for the respondent flow.
// invalidateRanking, when non-nil, is called after every write so cached
// aggregations never outlive the responses they summarize.
func NewAvailabilityService(schedules persistence.ScheduleRepository, responses persistence.AvailabilityRepository, idGenerator func() string, now func() time.Time, invalidateRanking func(scheduleID string)) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(schedules, responses, idGenerator, now, invalidateRanking, nil)
}

// NewAvailabilityServiceWithLogger constructs an AvailabilityService with a specified logger.
func NewAvailabilityServiceWithLogger(schedules persistence.ScheduleRepository, responses persistence.AvailabilityRepository, idGenerator func() string, now func() time.Time, invalidateRanking func(scheduleID string), logger *slog.Logger) *AvailabilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if invalidateRanking == nil {
		invalidateRanking = func(string) {}
	}
	return &AvailabilityService{
		schedules:         schedules,
		responses:         responses,
		idGenerator:       idGenerator,
		now:               now,
		invalidateRanking: invalidateRanking,
		logger:            defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

func (s *AvailabilityService) scheduleByToken(ctx context.Context, token string) (persistence.SessionSchedule, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return persistence.SessionSchedule{}, ErrNotFound
	}
	schedule, err := s.schedules.GetScheduleByToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.SessionSchedule{}, ErrNotFound
		}
		return persistence.SessionSchedule{}, err
	}
	return schedule, nil
}

// GetPollView loads everything the public poll page needs: the schedule, its
// full date-indexed slot listing, and the respondent's existing selections
// when an email is supplied.
func (s *AvailabilityService) GetPollView(ctx context.Context, token, email string) (PollView, error) {
	if s == nil {
		return PollView{}, fmt.Errorf("AvailabilityService is nil")
	}
	if s.schedules == nil {
		return PollView{}, fmt.Errorf("schedule repository not configured")
	}

	schedule, err := s.scheduleByToken(ctx, token)
	if err != nil {
		return PollView{}, err
	}

	var existing *persistence.AvailabilityResponse
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized != "" && s.responses != nil {
		response, err := s.responses.GetResponse(ctx, schedule.ID, normalized)
		switch {
		case err == nil:
			existing = &response
		case errors.Is(err, persistence.ErrNotFound):
		default:
			return PollView{}, err
		}
	}

	cfg := slotConfig(schedule)
	view := PollView{Schedule: schedule, Existing: existing}
	for _, date := range timeslot.DateRange(cfg) {
		iso := date.Format(timeslot.DateFormat)
		slots := timeslot.SlotsForDate(cfg, date)
		selected := make(map[string]bool, len(slots))
		if existing != nil {
			for _, label := range existing.Selections[iso] {
				selected[label] = true
			}
		}
		view.Dates = append(view.Dates, DateSlots{
			Date:     iso,
			DayName:  date.Weekday().String(),
			Slots:    slots,
			Selected: selected,
		})
	}
	return view, nil
}

// SubmitAvailability upserts one respondent's full-form submission. A second
// submission from the same email updates the first record; dates absent from
// the submitted map keep their previously stored selections.
func (s *AvailabilityService) SubmitAvailability(ctx context.Context, params SubmitAvailabilityParams) (result persistence.AvailabilityResponse, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.schedules == nil || s.responses == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "SubmitAvailability", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "availability submission failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("response_id", result.ID, "schedule_id", result.ScheduleID).InfoContext(ctx, "availability recorded")
	}()

	var schedule persistence.SessionSchedule
	schedule, err = s.scheduleByToken(ctx, params.Token)
	if err != nil {
		return
	}
	if schedule.Status != persistence.StatusCollecting {
		err = ErrInvalidState
		return
	}

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email address is required")
	}
	slotsByDate := timeslot.AllSlotsByDate(slotConfig(schedule))
	for date, labels := range params.Selections {
		offered, ok := slotsByDate[date]
		if !ok {
			vErr.add("selections", fmt.Sprintf("date %s is not part of this poll", date))
			continue
		}
		for _, label := range labels {
			if !timeslot.ContainsLabel(offered, label) {
				vErr.add("selections", fmt.Sprintf("slot %q is not offered on %s", label, date))
			}
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	playerName := strings.TrimSpace(params.PlayerName)
	characterName := strings.TrimSpace(params.CharacterName)

	response, lookupErr := s.responses.GetResponse(ctx, schedule.ID, email)
	switch {
	case lookupErr == nil:
		// Identity fields only move forward: an empty resubmission never
		// blanks out a previously supplied name.
		updatedName := response.PlayerName
		updatedCharacter := response.CharacterName
		if playerName != "" {
			updatedName = playerName
		}
		if characterName != "" {
			updatedCharacter = characterName
		}
		if updatedName != response.PlayerName || updatedCharacter != response.CharacterName {
			if err = s.responses.UpdateResponseIdentity(ctx, response.ID, updatedName, updatedCharacter, now); err != nil {
				return
			}
			response.PlayerName = updatedName
			response.CharacterName = updatedCharacter
		}
	case errors.Is(lookupErr, persistence.ErrNotFound):
		if playerName == "" {
			playerName = DefaultPlayerName
		}
		response = persistence.AvailabilityResponse{
			ID:            s.idGenerator(),
			ScheduleID:    schedule.ID,
			Email:         email,
			PlayerName:    playerName,
			CharacterName: characterName,
			Selections:    map[string][]string{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err = s.responses.CreateResponse(ctx, response); err != nil {
			// A concurrent first submission from the same email won the
			// insert; fall back to updating its record.
			if errors.Is(err, persistence.ErrDuplicate) {
				response, err = s.responses.GetResponse(ctx, schedule.ID, email)
				if err != nil {
					return
				}
			} else {
				return
			}
		}
	default:
		err = lookupErr
		return
	}

	if len(params.Selections) > 0 {
		if err = s.responses.MergeSelections(ctx, response.ID, params.Selections, now); err != nil {
			return
		}
	}

	s.invalidateRanking(schedule.ID)

	result, err = s.responses.GetResponse(ctx, schedule.ID, email)
	return
}

// ToggleSlot flips a single slot selection and reports whether the slot ended
// up selected. Selecting requires the label to be currently offered;
// deselecting tolerates labels orphaned by a reconfigured schedule.
func (s *AvailabilityService) ToggleSlot(ctx context.Context, params ToggleSlotParams) (selected bool, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.schedules == nil || s.responses == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "ToggleSlot", "email", email, "date", params.Date, "label", params.Label)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot toggle failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("selected", selected).InfoContext(ctx, "slot toggled")
	}()

	var schedule persistence.SessionSchedule
	schedule, err = s.scheduleByToken(ctx, params.Token)
	if err != nil {
		return
	}
	if schedule.Status != persistence.StatusCollecting {
		err = ErrInvalidState
		return
	}

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email address is required")
	}
	if strings.TrimSpace(params.Date) == "" {
		vErr.add("date", "date is required")
	}
	if strings.TrimSpace(params.Label) == "" {
		vErr.add("label", "slot label is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	response, lookupErr := s.responses.GetResponse(ctx, schedule.ID, email)
	if errors.Is(lookupErr, persistence.ErrNotFound) {
		response = persistence.AvailabilityResponse{
			ID:         s.idGenerator(),
			ScheduleID: schedule.ID,
			Email:      email,
			PlayerName: DefaultPlayerName,
			Selections: map[string][]string{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if createErr := s.responses.CreateResponse(ctx, response); createErr != nil && !errors.Is(createErr, persistence.ErrDuplicate) {
			err = createErr
			return
		}
		response, lookupErr = s.responses.GetResponse(ctx, schedule.ID, email)
	}
	if lookupErr != nil {
		err = lookupErr
		return
	}

	currentlySelected := false
	for _, label := range response.Selections[params.Date] {
		if label == params.Label {
			currentlySelected = true
			break
		}
	}
	if !currentlySelected {
		offered := timeslot.AllSlotsByDate(slotConfig(schedule))[params.Date]
		if !timeslot.ContainsLabel(offered, params.Label) {
			vErr := &ValidationError{}
			vErr.add("label", fmt.Sprintf("slot %q is not offered on %s", params.Label, params.Date))
			err = vErr
			return
		}
	}

	selected, err = s.responses.ToggleSlot(ctx, response.ID, params.Date, params.Label, now)
	if err != nil {
		return
	}

	s.invalidateRanking(schedule.ID)
	return
}
