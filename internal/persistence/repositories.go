package persistence

import (
	"context"
	"time"
)

// OrganizerRepository exposes account storage for organizers.
type OrganizerRepository interface {
	CreateOrganizer(ctx context.Context, organizer Organizer) error
	GetOrganizer(ctx context.Context, id string) (Organizer, error)
	GetOrganizerByEmail(ctx context.Context, email string) (Organizer, error)
	UpdateOrganizer(ctx context.Context, organizer Organizer) error
}

// CampaignRepository exposes CRUD operations for campaigns.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign Campaign) error
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaignsByOwner(ctx context.Context, ownerID string) ([]Campaign, error)
	UpdateCampaign(ctx context.Context, campaign Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
}

// ScheduleRepository stores availability polls. TransitionStatus is the
// single-winner guard for lifecycle changes: it only succeeds when the stored
// status still matches the expected value, and reports ErrStaleStatus
// otherwise.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule SessionSchedule) error
	GetSchedule(ctx context.Context, id string) (SessionSchedule, error)
	GetScheduleByToken(ctx context.Context, token string) (SessionSchedule, error)
	ListSchedulesForCampaign(ctx context.Context, campaignID string) ([]SessionSchedule, error)
	UpdateSchedule(ctx context.Context, schedule SessionSchedule) error
	TransitionStatus(ctx context.Context, scheduleID, fromStatus, toStatus string) error
	DeleteSchedule(ctx context.Context, id string) error
}

// AvailabilityRepository stores per-respondent selections. ToggleSlot and
// MergeSelections read the latest persisted mapping inside a transaction
// before mutating, so rapid double submissions from one respondent can never
// clobber another respondent's record.
type AvailabilityRepository interface {
	CreateResponse(ctx context.Context, response AvailabilityResponse) error
	GetResponse(ctx context.Context, scheduleID, email string) (AvailabilityResponse, error)
	ListResponsesForSchedule(ctx context.Context, scheduleID string) ([]AvailabilityResponse, error)
	UpdateResponseIdentity(ctx context.Context, responseID, playerName, characterName string, updatedAt time.Time) error
	// MergeSelections replaces the stored slot lists for exactly the dates
	// present in selections; dates absent from the map keep their prior
	// values.
	MergeSelections(ctx context.Context, responseID string, selections map[string][]string, updatedAt time.Time) error
	// ToggleSlot flips one slot's membership for one date and returns whether
	// the slot ended up selected.
	ToggleSlot(ctx context.Context, responseID, date, label string, updatedAt time.Time) (bool, error)
	DeleteResponse(ctx context.Context, responseID string) error
}

// ScheduledSessionRepository stores committed sessions. CommitSession
// performs the status transition, the session insert, and the attendee
// inserts in a single transaction so concurrent commit attempts cannot both
// succeed.
type ScheduledSessionRepository interface {
	CommitSession(ctx context.Context, session ScheduledSession) error
	GetSessionForSchedule(ctx context.Context, scheduleID string) (ScheduledSession, error)
}

// AuthSessionRepository stores organizer login sessions.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) error
	GetAuthSessionByToken(ctx context.Context, token string) (AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
