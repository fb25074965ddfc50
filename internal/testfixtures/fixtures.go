package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/session-scheduler/internal/application"
	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

var (
	organizerCounter uint64
	campaignCounter  uint64
	scheduleCounter  uint64
	responseCounter  uint64
)

var referenceTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// -------------------------- Organizer fixtures ---------------------------

// OrganizerFixture represents a deterministic organizer account that can be
// materialised for application or persistence tests.
type OrganizerFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrganizerOption configures the generated organizer fixture.
type OrganizerOption func(*OrganizerFixture)

// NewOrganizerFixture returns a deterministic organizer fixture with optional
// overrides.
func NewOrganizerFixture(opts ...OrganizerOption) OrganizerFixture {
	idx := atomic.AddUint64(&organizerCounter, 1)
	id := fmt.Sprintf("organizer-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := OrganizerFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("Organizer %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOrganizerID overrides the generated organizer ID.
func WithOrganizerID(id string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.ID = id
	}
}

// WithOrganizerEmail overrides the generated email address.
func WithOrganizerEmail(email string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.Email = email
	}
}

// WithOrganizerPasswordHash overrides the generated password hash.
func WithOrganizerPasswordHash(hash string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.PasswordHash = hash
	}
}

// Persistence materialises the fixture as a storage model.
func (f OrganizerFixture) Persistence() persistence.Organizer {
	return persistence.Organizer{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Principal materialises the fixture as an authenticated principal.
func (f OrganizerFixture) Principal() application.Principal {
	return application.Principal{OrganizerID: f.ID}
}

// -------------------------- Campaign fixtures ----------------------------

// CampaignFixture represents a deterministic campaign record.
type CampaignFixture struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CampaignOption configures the generated campaign fixture.
type CampaignOption func(*CampaignFixture)

// NewCampaignFixture returns a deterministic campaign fixture with optional
// overrides.
func NewCampaignFixture(opts ...CampaignOption) CampaignFixture {
	idx := atomic.AddUint64(&campaignCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := CampaignFixture{
		ID:        fmt.Sprintf("campaign-%03d", idx),
		OwnerID:   fmt.Sprintf("organizer-%03d", idx),
		Title:     fmt.Sprintf("Campaign %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCampaignID overrides the generated campaign ID.
func WithCampaignID(id string) CampaignOption {
	return func(f *CampaignFixture) {
		f.ID = id
	}
}

// WithCampaignOwner overrides the generated owner ID.
func WithCampaignOwner(ownerID string) CampaignOption {
	return func(f *CampaignFixture) {
		f.OwnerID = ownerID
	}
}

// WithCampaignTitle overrides the generated title.
func WithCampaignTitle(title string) CampaignOption {
	return func(f *CampaignFixture) {
		f.Title = title
	}
}

// WithCampaignDescription sets the optional description.
func WithCampaignDescription(description string) CampaignOption {
	return func(f *CampaignFixture) {
		f.Description = &description
	}
}

// Persistence materialises the fixture as a storage model.
func (f CampaignFixture) Persistence() persistence.Campaign {
	return persistence.Campaign{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// -------------------------- Schedule fixtures ----------------------------

// ScheduleFixture represents a deterministic availability poll spanning a
// single June 2024 weekend unless overridden.
type ScheduleFixture struct {
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

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a deterministic schedule fixture with optional
// overrides. The default poll covers Friday 7 June through Sunday 9 June
// 2024 with a weekend window of 18:00-22:00 and two hour slots.
func NewScheduleFixture(opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ScheduleFixture{
		ID:              fmt.Sprintf("schedule-%03d", idx),
		CampaignID:      fmt.Sprintf("campaign-%03d", idx),
		OwnerID:         fmt.Sprintf("organizer-%03d", idx),
		Title:           fmt.Sprintf("Schedule %03d", idx),
		ShareToken:      fmt.Sprintf("token-%03d", idx),
		StartDate:       time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC),
		IncludeWeekdays: false,
		WeekdayWindow:   timeslot.Window{Start: timeslot.TimeOfDay{Hour: 19}, End: timeslot.TimeOfDay{Hour: 23}},
		WeekendWindow:   timeslot.Window{Start: timeslot.TimeOfDay{Hour: 18}, End: timeslot.TimeOfDay{Hour: 22}},
		DurationHours:   2,
		OverlapHours:    0,
		Status:          persistence.StatusCollecting,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.ID = id
	}
}

// WithScheduleCampaign overrides the generated campaign linkage.
func WithScheduleCampaign(campaignID, ownerID string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.CampaignID = campaignID
		f.OwnerID = ownerID
	}
}

// WithScheduleToken overrides the generated share token.
func WithScheduleToken(token string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.ShareToken = token
	}
}

// WithScheduleStatus overrides the lifecycle status.
func WithScheduleStatus(status string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Status = status
	}
}

// WithScheduleDates overrides the polled date range.
func WithScheduleDates(start, end time.Time) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithScheduleWeekdays enables weekday slots with the given window.
func WithScheduleWeekdays(window timeslot.Window) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.IncludeWeekdays = true
		f.WeekdayWindow = window
	}
}

// WithScheduleSlotGeometry overrides the slot duration and overlap.
func WithScheduleSlotGeometry(durationHours, overlapHours int) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.DurationHours = durationHours
		f.OverlapHours = overlapHours
	}
}

// Persistence materialises the fixture as a storage model.
func (f ScheduleFixture) Persistence() persistence.SessionSchedule {
	return persistence.SessionSchedule{
		ID:              f.ID,
		CampaignID:      f.CampaignID,
		OwnerID:         f.OwnerID,
		Title:           f.Title,
		ShareToken:      f.ShareToken,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		IncludeWeekdays: f.IncludeWeekdays,
		WeekdayWindow:   f.WeekdayWindow,
		WeekendWindow:   f.WeekendWindow,
		DurationHours:   f.DurationHours,
		OverlapHours:    f.OverlapHours,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// -------------------------- Response fixtures ----------------------------

// ResponseFixture represents a deterministic availability response.
type ResponseFixture struct {
	ID            string
	ScheduleID    string
	Email         string
	PlayerName    string
	CharacterName string
	Selections    map[string][]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ResponseOption configures the generated response fixture.
type ResponseOption func(*ResponseFixture)

// NewResponseFixture returns a deterministic response fixture with optional
// overrides.
func NewResponseFixture(opts ...ResponseOption) ResponseFixture {
	idx := atomic.AddUint64(&responseCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResponseFixture{
		ID:         fmt.Sprintf("response-%03d", idx),
		ScheduleID: fmt.Sprintf("schedule-%03d", idx),
		Email:      fmt.Sprintf("player-%03d@example.com", idx),
		PlayerName: fmt.Sprintf("Player %03d", idx),
		Selections: map[string][]string{},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResponseID overrides the generated response ID.
func WithResponseID(id string) ResponseOption {
	return func(f *ResponseFixture) {
		f.ID = id
	}
}

// WithResponseSchedule overrides the generated schedule linkage.
func WithResponseSchedule(scheduleID string) ResponseOption {
	return func(f *ResponseFixture) {
		f.ScheduleID = scheduleID
	}
}

// WithResponseEmail overrides the generated respondent email.
func WithResponseEmail(email string) ResponseOption {
	return func(f *ResponseFixture) {
		f.Email = email
	}
}

// WithResponsePlayer overrides the respondent identity fields.
func WithResponsePlayer(playerName, characterName string) ResponseOption {
	return func(f *ResponseFixture) {
		f.PlayerName = playerName
		f.CharacterName = characterName
	}
}

// WithResponseSelections sets the per-date slot selections.
func WithResponseSelections(selections map[string][]string) ResponseOption {
	return func(f *ResponseFixture) {
		f.Selections = selections
	}
}

// Persistence materialises the fixture as a storage model.
func (f ResponseFixture) Persistence() persistence.AvailabilityResponse {
	selections := make(map[string][]string, len(f.Selections))
	for date, labels := range f.Selections {
		selections[date] = append([]string(nil), labels...)
	}
	return persistence.AvailabilityResponse{
		ID:            f.ID,
		ScheduleID:    f.ScheduleID,
		Email:         f.Email,
		PlayerName:    f.PlayerName,
		CharacterName: f.CharacterName,
		Selections:    selections,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}
