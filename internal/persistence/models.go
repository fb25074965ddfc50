package persistence

import (
	"time"

	"github.com/example/session-scheduler/internal/timeslot"
)

// Organizer represents a DM account that owns campaigns and polls.
type Organizer struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Campaign anchors schedules to an owning organizer.
type Campaign struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Schedule lifecycle states. A schedule collects responses until the
// organizer either commits a session time or closes the poll; both end
// states are terminal.
const (
	StatusCollecting = "collecting"
	StatusScheduled  = "scheduled"
	StatusClosed     = "closed"
)

// SessionSchedule is one availability poll: a date range, per-day-type time
// windows, and the slot geometry used to enumerate bookable times.
type SessionSchedule struct {
	ID              string
	CampaignID      string
	OwnerID         string
	Title           string
	ShareToken      string
	StartDate       time.Time
	EndDate         time.Time
	IncludeWeekdays bool
	WeekdayWindow   timeslot.Window
	WeekendWindow   timeslot.Window
	DurationHours   int
	OverlapHours    int
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailabilityResponse is one respondent's selections for a schedule, unique
// per (schedule, email). Selections maps ISO dates to slot labels.
type AvailabilityResponse struct {
	ID            string
	ScheduleID    string
	Email         string
	PlayerName    string
	CharacterName string
	Selections    map[string][]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduledSession is the committed outcome of a poll: at most one per
// schedule, carrying the concrete start time and confirmed attendees.
type ScheduledSession struct {
	ID            string
	ScheduleID    string
	ScheduledAt   time.Time
	DurationHours int
	AttendeeIDs   []string
	CreatedAt     time.Time
}

// AuthSession represents an organizer login session token.
type AuthSession struct {
	ID          string
	OrganizerID string
	Token       string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RevokedAt   *time.Time
}
