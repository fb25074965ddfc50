package application

import (
	"context"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// organizerRepoStub provides an in-memory OrganizerRepository for tests.
type organizerRepoStub struct {
	byID    map[string]persistence.Organizer
	byEmail map[string]string

	createErr error
	getErr    error
}

func newOrganizerRepoStub() *organizerRepoStub {
	return &organizerRepoStub{
		byID:    make(map[string]persistence.Organizer),
		byEmail: make(map[string]string),
	}
}

func (s *organizerRepoStub) seed(organizer persistence.Organizer) {
	s.byID[organizer.ID] = organizer
	s.byEmail[strings.ToLower(organizer.Email)] = organizer.ID
}

func (s *organizerRepoStub) CreateOrganizer(ctx context.Context, organizer persistence.Organizer) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byEmail[strings.ToLower(organizer.Email)]; exists {
		return persistence.ErrDuplicate
	}
	s.seed(organizer)
	return nil
}

func (s *organizerRepoStub) GetOrganizer(ctx context.Context, id string) (persistence.Organizer, error) {
	if s.getErr != nil {
		return persistence.Organizer{}, s.getErr
	}
	organizer, ok := s.byID[id]
	if !ok {
		return persistence.Organizer{}, persistence.ErrNotFound
	}
	return organizer, nil
}

func (s *organizerRepoStub) GetOrganizerByEmail(ctx context.Context, email string) (persistence.Organizer, error) {
	if s.getErr != nil {
		return persistence.Organizer{}, s.getErr
	}
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return persistence.Organizer{}, persistence.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *organizerRepoStub) UpdateOrganizer(ctx context.Context, organizer persistence.Organizer) error {
	if _, ok := s.byID[organizer.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.seed(organizer)
	return nil
}

// authSessionRepoStub provides an in-memory AuthSessionRepository for tests.
type authSessionRepoStub struct {
	byToken map[string]persistence.AuthSession

	createErr error
	getErr    error

	deleteCalls []time.Time
}

func newAuthSessionRepoStub() *authSessionRepoStub {
	return &authSessionRepoStub{byToken: make(map[string]persistence.AuthSession)}
}

func (s *authSessionRepoStub) seed(session persistence.AuthSession) {
	s.byToken[session.Token] = session
}

func (s *authSessionRepoStub) CreateAuthSession(ctx context.Context, session persistence.AuthSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.seed(session)
	return nil
}

func (s *authSessionRepoStub) GetAuthSessionByToken(ctx context.Context, token string) (persistence.AuthSession, error) {
	if s.getErr != nil {
		return persistence.AuthSession{}, s.getErr
	}
	session, ok := s.byToken[token]
	if !ok {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *authSessionRepoStub) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) error {
	session, ok := s.byToken[token]
	if !ok || session.RevokedAt != nil {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.byToken[token] = session
	return nil
}

func (s *authSessionRepoStub) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	s.deleteCalls = append(s.deleteCalls, reference)
	for token, session := range s.byToken {
		if session.ExpiresAt.Before(reference) {
			delete(s.byToken, token)
		}
	}
	return nil
}

// campaignRepoStub provides an in-memory CampaignRepository for tests.
type campaignRepoStub struct {
	byID map[string]persistence.Campaign

	createErr error
	getErr    error
}

func newCampaignRepoStub() *campaignRepoStub {
	return &campaignRepoStub{byID: make(map[string]persistence.Campaign)}
}

func (s *campaignRepoStub) seed(campaign persistence.Campaign) {
	s.byID[campaign.ID] = campaign
}

func (s *campaignRepoStub) CreateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.seed(campaign)
	return nil
}

func (s *campaignRepoStub) GetCampaign(ctx context.Context, id string) (persistence.Campaign, error) {
	if s.getErr != nil {
		return persistence.Campaign{}, s.getErr
	}
	campaign, ok := s.byID[id]
	if !ok {
		return persistence.Campaign{}, persistence.ErrNotFound
	}
	return campaign, nil
}

func (s *campaignRepoStub) ListCampaignsByOwner(ctx context.Context, ownerID string) ([]persistence.Campaign, error) {
	var out []persistence.Campaign
	for _, campaign := range s.byID {
		if campaign.OwnerID == ownerID {
			out = append(out, campaign)
		}
	}
	return out, nil
}

func (s *campaignRepoStub) UpdateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	if _, ok := s.byID[campaign.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.seed(campaign)
	return nil
}

func (s *campaignRepoStub) DeleteCampaign(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// scheduleRepoStub provides an in-memory ScheduleRepository for tests.
type scheduleRepoStub struct {
	byID    map[string]persistence.SessionSchedule
	byToken map[string]string

	createErr     error
	getErr        error
	updateErr     error
	transitionErr error

	transitions []string
}

func newScheduleRepoStub() *scheduleRepoStub {
	return &scheduleRepoStub{
		byID:    make(map[string]persistence.SessionSchedule),
		byToken: make(map[string]string),
	}
}

func (s *scheduleRepoStub) seed(schedule persistence.SessionSchedule) {
	s.byID[schedule.ID] = schedule
	s.byToken[schedule.ShareToken] = schedule.ID
}

func (s *scheduleRepoStub) CreateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byToken[schedule.ShareToken]; exists {
		return persistence.ErrDuplicate
	}
	s.seed(schedule)
	return nil
}

func (s *scheduleRepoStub) GetSchedule(ctx context.Context, id string) (persistence.SessionSchedule, error) {
	if s.getErr != nil {
		return persistence.SessionSchedule{}, s.getErr
	}
	schedule, ok := s.byID[id]
	if !ok {
		return persistence.SessionSchedule{}, persistence.ErrNotFound
	}
	return schedule, nil
}

func (s *scheduleRepoStub) GetScheduleByToken(ctx context.Context, token string) (persistence.SessionSchedule, error) {
	if s.getErr != nil {
		return persistence.SessionSchedule{}, s.getErr
	}
	id, ok := s.byToken[token]
	if !ok {
		return persistence.SessionSchedule{}, persistence.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *scheduleRepoStub) ListSchedulesForCampaign(ctx context.Context, campaignID string) ([]persistence.SessionSchedule, error) {
	var out []persistence.SessionSchedule
	for _, schedule := range s.byID {
		if schedule.CampaignID == campaignID {
			out = append(out, schedule)
		}
	}
	return out, nil
}

func (s *scheduleRepoStub) UpdateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.byID[schedule.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.seed(schedule)
	return nil
}

func (s *scheduleRepoStub) TransitionStatus(ctx context.Context, scheduleID, fromStatus, toStatus string) error {
	if s.transitionErr != nil {
		return s.transitionErr
	}
	schedule, ok := s.byID[scheduleID]
	if !ok || schedule.Status != fromStatus {
		return persistence.ErrStaleStatus
	}
	schedule.Status = toStatus
	s.byID[scheduleID] = schedule
	s.transitions = append(s.transitions, fromStatus+"->"+toStatus)
	return nil
}

func (s *scheduleRepoStub) DeleteSchedule(ctx context.Context, id string) error {
	schedule, ok := s.byID[id]
	if !ok {
		return persistence.ErrNotFound
	}
	delete(s.byToken, schedule.ShareToken)
	delete(s.byID, id)
	return nil
}

// availabilityRepoStub provides an in-memory AvailabilityRepository for tests.
type availabilityRepoStub struct {
	byID map[string]persistence.AvailabilityResponse

	createErr error
	getErr    error
	mergeErr  error
	toggleErr error
}

func newAvailabilityRepoStub() *availabilityRepoStub {
	return &availabilityRepoStub{byID: make(map[string]persistence.AvailabilityResponse)}
}

func (s *availabilityRepoStub) seed(response persistence.AvailabilityResponse) {
	if response.Selections == nil {
		response.Selections = map[string][]string{}
	}
	s.byID[response.ID] = response
}

func (s *availabilityRepoStub) CreateResponse(ctx context.Context, response persistence.AvailabilityResponse) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.byID {
		if existing.ScheduleID == response.ScheduleID && strings.EqualFold(existing.Email, response.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.seed(response)
	return nil
}

func (s *availabilityRepoStub) GetResponse(ctx context.Context, scheduleID, email string) (persistence.AvailabilityResponse, error) {
	if s.getErr != nil {
		return persistence.AvailabilityResponse{}, s.getErr
	}
	for _, response := range s.byID {
		if response.ScheduleID == scheduleID && strings.EqualFold(response.Email, email) {
			return response, nil
		}
	}
	return persistence.AvailabilityResponse{}, persistence.ErrNotFound
}

func (s *availabilityRepoStub) ListResponsesForSchedule(ctx context.Context, scheduleID string) ([]persistence.AvailabilityResponse, error) {
	var out []persistence.AvailabilityResponse
	for _, response := range s.byID {
		if response.ScheduleID == scheduleID {
			out = append(out, response)
		}
	}
	return out, nil
}

func (s *availabilityRepoStub) UpdateResponseIdentity(ctx context.Context, responseID, playerName, characterName string, updatedAt time.Time) error {
	response, ok := s.byID[responseID]
	if !ok {
		return persistence.ErrNotFound
	}
	response.PlayerName = playerName
	response.CharacterName = characterName
	response.UpdatedAt = updatedAt
	s.byID[responseID] = response
	return nil
}

func (s *availabilityRepoStub) MergeSelections(ctx context.Context, responseID string, selections map[string][]string, updatedAt time.Time) error {
	if s.mergeErr != nil {
		return s.mergeErr
	}
	response, ok := s.byID[responseID]
	if !ok {
		return persistence.ErrNotFound
	}
	for date, labels := range selections {
		if len(labels) == 0 {
			delete(response.Selections, date)
			continue
		}
		response.Selections[date] = append([]string(nil), labels...)
	}
	response.UpdatedAt = updatedAt
	s.byID[responseID] = response
	return nil
}

func (s *availabilityRepoStub) ToggleSlot(ctx context.Context, responseID, date, label string, updatedAt time.Time) (bool, error) {
	if s.toggleErr != nil {
		return false, s.toggleErr
	}
	response, ok := s.byID[responseID]
	if !ok {
		return false, persistence.ErrNotFound
	}
	current := response.Selections[date]
	filtered := make([]string, 0, len(current))
	removed := false
	for _, candidate := range current {
		if candidate == label {
			removed = true
			continue
		}
		filtered = append(filtered, candidate)
	}
	if !removed {
		filtered = append(filtered, label)
	}
	if len(filtered) == 0 {
		delete(response.Selections, date)
	} else {
		response.Selections[date] = filtered
	}
	response.UpdatedAt = updatedAt
	s.byID[responseID] = response
	return !removed, nil
}

func (s *availabilityRepoStub) DeleteResponse(ctx context.Context, responseID string) error {
	if _, ok := s.byID[responseID]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.byID, responseID)
	return nil
}

// scheduledSessionRepoStub provides an in-memory ScheduledSessionRepository
// for tests. Commit honours the same single-winner rule as the real store.
type scheduledSessionRepoStub struct {
	schedules  *scheduleRepoStub
	bySchedule map[string]persistence.ScheduledSession

	commitErr error
}

func newScheduledSessionRepoStub(schedules *scheduleRepoStub) *scheduledSessionRepoStub {
	return &scheduledSessionRepoStub{
		schedules:  schedules,
		bySchedule: make(map[string]persistence.ScheduledSession),
	}
}

func (s *scheduledSessionRepoStub) CommitSession(ctx context.Context, session persistence.ScheduledSession) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	if s.schedules != nil {
		if err := s.schedules.TransitionStatus(ctx, session.ScheduleID, persistence.StatusCollecting, persistence.StatusScheduled); err != nil {
			return err
		}
	}
	s.bySchedule[session.ScheduleID] = session
	return nil
}

func (s *scheduledSessionRepoStub) GetSessionForSchedule(ctx context.Context, scheduleID string) (persistence.ScheduledSession, error) {
	session, ok := s.bySchedule[scheduleID]
	if !ok {
		return persistence.ScheduledSession{}, persistence.ErrNotFound
	}
	return session, nil
}

// notifierStub records session notifications issued during tests.
type notifierStub struct {
	recipients []string
	err        error
}

func (n *notifierStub) NotifySessionScheduled(ctx context.Context, recipient string, schedule persistence.SessionSchedule, session persistence.ScheduledSession) error {
	n.recipients = append(n.recipients, recipient)
	return n.err
}
