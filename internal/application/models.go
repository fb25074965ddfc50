package application

import (
	"time"

	"github.com/example/session-scheduler/internal/availability"
	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

// Principal represents the authenticated organizer invoking a service method.
// The public respondent endpoints carry no principal; the share token is the
// only credential there.
type Principal struct {
	OrganizerID string
}

// CampaignInput captures caller provided campaign fields.
type CampaignInput struct {
	Title       string
	Description string
}

// ScheduleInput captures caller provided poll configuration.
type ScheduleInput struct {
	Title           string
	StartDate       time.Time
	EndDate         time.Time
	IncludeWeekdays bool
	WeekdayWindow   timeslot.Window
	WeekendWindow   timeslot.Window
	DurationHours   int
	OverlapHours    int
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal  Principal
	CampaignID string
	Input      ScheduleInput
}

// UpdateScheduleParams wraps the data required to update a schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Input      ScheduleInput
}

// SubmitAvailabilityParams is a full-form availability submission from the
// public poll page. Selections maps ISO dates to slot labels; dates absent
// from the map keep their previously stored selections.
type SubmitAvailabilityParams struct {
	Token         string
	Email         string
	PlayerName    string
	CharacterName string
	Selections    map[string][]string
}

// ToggleSlotParams flips a single slot selection for one respondent.
type ToggleSlotParams struct {
	Token string
	Email string
	Date  string
	Label string
}

// CommitScheduleParams is the organizer's decision to lock in a session.
type CommitScheduleParams struct {
	Principal     Principal
	ScheduleID    string
	Date          string
	SlotLabel     string
	DurationHours int
}

// DateSlots pairs a calendar date with the slots offered on it and, when an
// existing response is known, which of them are currently selected.
type DateSlots struct {
	Date     string
	DayName  string
	Slots    []timeslot.Slot
	Selected map[string]bool
}

// PollView is everything the public availability page needs to render.
type PollView struct {
	Schedule persistence.SessionSchedule
	Dates    []DateSlots
	Existing *persistence.AvailabilityResponse
}

// AggregationView is the organizer's decision-support summary.
type AggregationView struct {
	Schedule     persistence.SessionSchedule
	Responses    []availability.Response
	Grid         []availability.GridDate
	PopularSlots []availability.PopularSlot
	CanSchedule  bool
}

// AuthResult bundles a fresh session token with its organizer.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Organizer persistence.Organizer
}

// slotConfig converts a stored schedule into the generator's configuration.
func slotConfig(schedule persistence.SessionSchedule) timeslot.Config {
	return timeslot.Config{
		StartDate:       schedule.StartDate,
		EndDate:         schedule.EndDate,
		IncludeWeekdays: schedule.IncludeWeekdays,
		WeekdayWindow:   schedule.WeekdayWindow,
		WeekendWindow:   schedule.WeekendWindow,
		DurationHours:   schedule.DurationHours,
		OverlapHours:    schedule.OverlapHours,
	}
}

// toAggregationResponses converts stored responses to the aggregation
// package's input shape.
func toAggregationResponses(responses []persistence.AvailabilityResponse) []availability.Response {
	out := make([]availability.Response, 0, len(responses))
	for _, response := range responses {
		out = append(out, availability.Response{
			ID:            response.ID,
			Email:         response.Email,
			PlayerName:    response.PlayerName,
			CharacterName: response.CharacterName,
			Selections:    response.Selections,
			UpdatedAt:     response.UpdatedAt,
		})
	}
	return out
}
