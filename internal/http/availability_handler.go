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
)

type availabilityService interface {
	GetPollView(ctx context.Context, token, email string) (application.PollView, error)
	SubmitAvailability(ctx context.Context, params application.SubmitAvailabilityParams) (persistence.AvailabilityResponse, error)
	ToggleSlot(ctx context.Context, params application.ToggleSlotParams) (bool, error)
}

// AvailabilityHandler serves the public poll endpoints reached via share
// token. No session is required; respondents identify themselves by email.
type AvailabilityHandler struct {
	availability availabilityService
	responder    responder
	logger       *slog.Logger
}

func NewAvailabilityHandler(availability availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{availability: availability, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// GetPoll renders the poll as seen by a respondent. An optional email query
// parameter preloads that respondent's current selections.
func (h *AvailabilityHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := PollTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errUnknownPollToken)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	logger := h.log(r.Context(), "GetPoll", "share_token", token)

	view, err := h.availability.GetPollView(r.Context(), token, email)
	if err != nil {
		logger.ErrorContext(r.Context(), "poll fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPollResponse(view))
}

// SubmitResponses stores a full-form availability submission.
func (h *AvailabilityHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := PollTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errUnknownPollToken)
		return
	}

	var req submitResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SubmitResponses", "share_token", token, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode response submission", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SubmitResponses", "share_token", token, "email", req.Email)

	stored, err := h.availability.SubmitAvailability(r.Context(), application.SubmitAvailabilityParams{
		Token:         token,
		Email:         req.Email,
		PlayerName:    req.PlayerName,
		CharacterName: req.CharacterName,
		Selections:    req.Selections,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "response submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("response_id", stored.ID).InfoContext(r.Context(), "availability submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, responseEnvelope{Response: toResponseDTO(stored)})
}

// ToggleSlot flips one slot selection and reports the resulting state.
func (h *AvailabilityHandler) ToggleSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := PollTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errUnknownPollToken)
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ToggleSlot", "share_token", token, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode toggle request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ToggleSlot", "share_token", token, "email", req.Email, "date", req.Date, "slot_label", req.SlotLabel)

	selected, err := h.availability.ToggleSlot(r.Context(), application.ToggleSlotParams{
		Token: token,
		Email: req.Email,
		Date:  req.Date,
		Label: req.SlotLabel,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "slot toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "slot toggled", "selected", selected)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toggleResponse{Selected: selected})
}

type submitResponsesRequest struct {
	Email         string              `json:"email"`
	PlayerName    string              `json:"player_name"`
	CharacterName string              `json:"character_name"`
	Selections    map[string][]string `json:"selections"`
}

type toggleRequest struct {
	Email     string `json:"email"`
	Date      string `json:"date"`
	SlotLabel string `json:"slot_label"`
}

type toggleResponse struct {
	Selected bool `json:"selected"`
}

type slotDTO struct {
	Label    string `json:"label"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Selected bool   `json:"selected"`
}

type pollDateDTO struct {
	Date    string    `json:"date"`
	DayName string    `json:"day_name"`
	Slots   []slotDTO `json:"slots"`
}

type pollResponse struct {
	Title         string         `json:"title"`
	Status        string         `json:"status"`
	DurationHours int            `json:"duration_hours"`
	Dates         []pollDateDTO  `json:"dates"`
	Respondent    *respondentDTO `json:"respondent,omitempty"`
}

func toPollResponse(view application.PollView) pollResponse {
	out := pollResponse{
		Title:         view.Schedule.Title,
		Status:        view.Schedule.Status,
		DurationHours: view.Schedule.DurationHours,
		Dates:         make([]pollDateDTO, 0, len(view.Dates)),
	}
	for _, date := range view.Dates {
		slots := make([]slotDTO, 0, len(date.Slots))
		for _, slot := range date.Slots {
			slots = append(slots, slotDTO{
				Label:    slot.Label,
				Start:    slot.Start.String(),
				End:      slot.End.String(),
				Selected: date.Selected[slot.Label],
			})
		}
		out.Dates = append(out.Dates, pollDateDTO{Date: date.Date, DayName: date.DayName, Slots: slots})
	}
	if view.Existing != nil {
		out.Respondent = &respondentDTO{
			Email:         view.Existing.Email,
			PlayerName:    view.Existing.PlayerName,
			CharacterName: view.Existing.CharacterName,
		}
	}
	return out
}

type responseDTO struct {
	ID            string              `json:"id"`
	Email         string              `json:"email"`
	PlayerName    string              `json:"player_name"`
	CharacterName string              `json:"character_name,omitempty"`
	Selections    map[string][]string `json:"selections"`
	UpdatedAt     string              `json:"updated_at"`
}

type responseEnvelope struct {
	Response responseDTO `json:"response"`
}

func toResponseDTO(response persistence.AvailabilityResponse) responseDTO {
	selections := response.Selections
	if selections == nil {
		selections = map[string][]string{}
	}
	return responseDTO{
		ID:            response.ID,
		Email:         response.Email,
		PlayerName:    response.PlayerName,
		CharacterName: response.CharacterName,
		Selections:    selections,
		UpdatedAt:     response.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
