package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/application"
	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (persistence.SessionSchedule, error)
	GetSchedule(ctx context.Context, principal application.Principal, id string) (persistence.SessionSchedule, error)
	ListSchedules(ctx context.Context, principal application.Principal, campaignID string) ([]persistence.SessionSchedule, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (persistence.SessionSchedule, error)
	CloseSchedule(ctx context.Context, principal application.Principal, id string) (persistence.SessionSchedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, id string) error
}

type decisionService interface {
	Overview(ctx context.Context, principal application.Principal, scheduleID string) (application.AggregationView, error)
	CommitSchedule(ctx context.Context, params application.CommitScheduleParams) (persistence.ScheduledSession, error)
	RemoveResponse(ctx context.Context, principal application.Principal, scheduleID, responseID string) error
	GetScheduledSession(ctx context.Context, principal application.Principal, scheduleID string) (persistence.ScheduledSession, error)
}

// ScheduleHandler serves poll configuration, lifecycle, aggregation, and the
// final scheduling decision.
type ScheduleHandler struct {
	schedules scheduleService
	decisions decisionService
	baseURL   string
	responder responder
	logger    *slog.Logger
}

// NewScheduleHandler constructs a handler. baseURL is the public origin used
// to render shareable poll links; it may be empty.
func NewScheduleHandler(schedules scheduleService, decisions decisionService, baseURL string, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{
		schedules: schedules,
		decisions: decisions,
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *ScheduleHandler) scheduleDTO(schedule persistence.SessionSchedule) scheduleDTO {
	dto := toScheduleDTO(schedule)
	if h.baseURL != "" && schedule.ShareToken != "" {
		dto.PollURL = h.baseURL + "/polls/" + schedule.ShareToken
	}
	return dto
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.OrganizerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.OrganizerID, "campaign_id", req.CampaignID)

	input, vErr := req.toInput()
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	schedule, err := h.schedules.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal:  principal,
		CampaignID: req.CampaignID,
		Input:      input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("schedule_id", schedule.ID).InfoContext(r.Context(), "schedule created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, scheduleResponse{Schedule: h.scheduleDTO(schedule)})
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	campaignID := strings.TrimSpace(r.URL.Query().Get("campaign_id"))
	if campaignID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.OrganizerID, "campaign_id", campaignID)

	schedules, err := h.schedules.ListSchedules(r.Context(), principal, campaignID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		dtos = append(dtos, h.scheduleDTO(schedule))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleListResponse{Schedules: dtos})
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	schedule, err := h.schedules.GetSchedule(r.Context(), principal, scheduleID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: h.scheduleDTO(schedule)})
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.OrganizerID, "schedule_id", scheduleID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	input, vErr := req.toInput()
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	schedule, err := h.schedules.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: h.scheduleDTO(schedule)})
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	if err := h.schedules.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		logger.ErrorContext(r.Context(), "schedule deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Close moves a collecting poll to its terminal closed state.
func (h *ScheduleHandler) Close(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Close", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	schedule, err := h.schedules.CloseSchedule(r.Context(), principal, scheduleID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule close failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule closed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: h.scheduleDTO(schedule)})
}

// RemoveResponse deletes one respondent's record from a collecting poll.
func (h *ScheduleHandler) RemoveResponse(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}
	responseID, ok := ResponseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(responseID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResponseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveResponse",
		"principal_id", principal.OrganizerID,
		"schedule_id", scheduleID,
		"response_id", responseID,
	)

	if err := h.decisions.RemoveResponse(r.Context(), principal, scheduleID, responseID); err != nil {
		logger.ErrorContext(r.Context(), "response removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "response removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Overview returns the aggregated availability for the organizer's decision.
func (h *ScheduleHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Overview", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	view, err := h.decisions.Overview(r.Context(), principal, scheduleID)
	if err != nil {
		logger.ErrorContext(r.Context(), "overview failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := toOverviewResponse(view)
	out.Schedule = h.scheduleDTO(view.Schedule)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Commit locks in the organizer's chosen date and slot.
func (h *ScheduleHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Commit", "principal_id", principal.OrganizerID, "schedule_id", scheduleID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode commit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Commit", "principal_id", principal.OrganizerID, "schedule_id", scheduleID, "date", req.Date, "slot_label", req.SlotLabel)

	session, err := h.decisions.CommitSchedule(r.Context(), application.CommitScheduleParams{
		Principal:     principal,
		ScheduleID:    scheduleID,
		Date:          req.Date,
		SlotLabel:     req.SlotLabel,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "commit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionEnvelope{Session: toSessionDTO(session)})
}

// Session returns the committed session for a schedule.
func (h *ScheduleHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Session", "principal_id", principal.OrganizerID, "schedule_id", scheduleID)

	session, err := h.decisions.GetScheduledSession(r.Context(), principal, scheduleID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionEnvelope{Session: toSessionDTO(session)})
}

type windowDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleRequest struct {
	CampaignID      string    `json:"campaign_id"`
	Title           string    `json:"title"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	IncludeWeekdays bool      `json:"include_weekdays"`
	WeekdayWindow   windowDTO `json:"weekday_window"`
	WeekendWindow   windowDTO `json:"weekend_window"`
	DurationHours   int       `json:"duration_hours"`
	OverlapHours    int       `json:"overlap_hours"`
}

// toInput parses the wire representation. Field level parse failures are
// collected so the caller sees them all at once.
func (r scheduleRequest) toInput() (application.ScheduleInput, *application.ValidationError) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	input := application.ScheduleInput{
		Title:           r.Title,
		IncludeWeekdays: r.IncludeWeekdays,
		DurationHours:   r.DurationHours,
		OverlapHours:    r.OverlapHours,
	}

	parseDate := func(field, value string) time.Time {
		if strings.TrimSpace(value) == "" {
			vErr.FieldErrors[field] = "a date in YYYY-MM-DD form is required"
			return time.Time{}
		}
		parsed, err := time.Parse(timeslot.DateFormat, value)
		if err != nil {
			vErr.FieldErrors[field] = "dates must use the YYYY-MM-DD form"
			return time.Time{}
		}
		return parsed
	}
	parseWindow := func(field string, dto windowDTO) timeslot.Window {
		start, err := timeslot.ParseTimeOfDay(dto.Start)
		if err != nil {
			vErr.FieldErrors[field] = "window times must use the HH:MM form"
			return timeslot.Window{}
		}
		end, err := timeslot.ParseTimeOfDay(dto.End)
		if err != nil {
			vErr.FieldErrors[field] = "window times must use the HH:MM form"
			return timeslot.Window{}
		}
		return timeslot.Window{Start: start, End: end}
	}

	input.StartDate = parseDate("start_date", r.StartDate)
	input.EndDate = parseDate("end_date", r.EndDate)
	input.WeekdayWindow = parseWindow("weekday_window", r.WeekdayWindow)
	input.WeekendWindow = parseWindow("weekend_window", r.WeekendWindow)
	return input, vErr
}

type scheduleDTO struct {
	ID              string    `json:"id"`
	CampaignID      string    `json:"campaign_id"`
	Title           string    `json:"title"`
	ShareToken      string    `json:"share_token"`
	PollURL         string    `json:"poll_url,omitempty"`
	Status          string    `json:"status"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	IncludeWeekdays bool      `json:"include_weekdays"`
	WeekdayWindow   windowDTO `json:"weekday_window"`
	WeekendWindow   windowDTO `json:"weekend_window"`
	DurationHours   int       `json:"duration_hours"`
	OverlapHours    int       `json:"overlap_hours"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

type scheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
}

type scheduleListResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}

func toScheduleDTO(schedule persistence.SessionSchedule) scheduleDTO {
	return scheduleDTO{
		ID:              schedule.ID,
		CampaignID:      schedule.CampaignID,
		Title:           schedule.Title,
		ShareToken:      schedule.ShareToken,
		Status:          schedule.Status,
		StartDate:       schedule.StartDate.Format(timeslot.DateFormat),
		EndDate:         schedule.EndDate.Format(timeslot.DateFormat),
		IncludeWeekdays: schedule.IncludeWeekdays,
		WeekdayWindow:   windowDTO{Start: schedule.WeekdayWindow.Start.String(), End: schedule.WeekdayWindow.End.String()},
		WeekendWindow:   windowDTO{Start: schedule.WeekendWindow.Start.String(), End: schedule.WeekendWindow.End.String()},
		DurationHours:   schedule.DurationHours,
		OverlapHours:    schedule.OverlapHours,
		CreatedAt:       schedule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type commitRequest struct {
	Date          string `json:"date"`
	SlotLabel     string `json:"slot_label"`
	DurationHours int    `json:"duration_hours"`
}

type sessionDTO struct {
	ID            string   `json:"id"`
	ScheduleID    string   `json:"schedule_id"`
	ScheduledAt   string   `json:"scheduled_at"`
	DurationHours int      `json:"duration_hours"`
	AttendeeIDs   []string `json:"attendee_ids"`
	CreatedAt     string   `json:"created_at"`
}

type sessionEnvelope struct {
	Session sessionDTO `json:"session"`
}

func toSessionDTO(session persistence.ScheduledSession) sessionDTO {
	attendees := session.AttendeeIDs
	if attendees == nil {
		attendees = []string{}
	}
	return sessionDTO{
		ID:            session.ID,
		ScheduleID:    session.ScheduleID,
		ScheduledAt:   session.ScheduledAt.Format(time.RFC3339),
		DurationHours: session.DurationHours,
		AttendeeIDs:   attendees,
		CreatedAt:     session.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type gridRowDTO struct {
	PlayerName    string   `json:"player_name"`
	CharacterName string   `json:"character_name,omitempty"`
	Slots         []string `json:"slots"`
}

type gridDateDTO struct {
	Date string       `json:"date"`
	Rows []gridRowDTO `json:"rows"`
}

type popularSlotDTO struct {
	Date        string   `json:"date"`
	SlotLabel   string   `json:"slot_label"`
	Count       int      `json:"count"`
	PlayerNames []string `json:"player_names"`
}

type respondentDTO struct {
	Email         string `json:"email"`
	PlayerName    string `json:"player_name"`
	CharacterName string `json:"character_name,omitempty"`
}

type overviewResponse struct {
	Schedule     scheduleDTO      `json:"schedule"`
	Respondents  []respondentDTO  `json:"respondents"`
	Grid         []gridDateDTO    `json:"grid"`
	PopularSlots []popularSlotDTO `json:"popular_slots"`
	CanSchedule  bool             `json:"can_schedule"`
}

func toOverviewResponse(view application.AggregationView) overviewResponse {
	out := overviewResponse{
		Schedule:     toScheduleDTO(view.Schedule),
		Respondents:  make([]respondentDTO, 0, len(view.Responses)),
		Grid:         make([]gridDateDTO, 0, len(view.Grid)),
		PopularSlots: make([]popularSlotDTO, 0, len(view.PopularSlots)),
		CanSchedule:  view.CanSchedule,
	}
	for _, response := range view.Responses {
		out.Respondents = append(out.Respondents, respondentDTO{
			Email:         response.Email,
			PlayerName:    response.PlayerName,
			CharacterName: response.CharacterName,
		})
	}
	for _, date := range view.Grid {
		rows := make([]gridRowDTO, 0, len(date.Rows))
		for _, row := range date.Rows {
			rows = append(rows, gridRowDTO(row))
		}
		out.Grid = append(out.Grid, gridDateDTO{Date: date.Date, Rows: rows})
	}
	for _, slot := range view.PopularSlots {
		out.PopularSlots = append(out.PopularSlots, popularSlotDTO{
			Date:        slot.Date,
			SlotLabel:   slot.Label,
			Count:       slot.Count,
			PlayerNames: slot.PlayerNames,
		})
	}
	return out
}
