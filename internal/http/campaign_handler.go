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

type campaignService interface {
	CreateCampaign(ctx context.Context, principal application.Principal, input application.CampaignInput) (persistence.Campaign, error)
	GetCampaign(ctx context.Context, principal application.Principal, id string) (persistence.Campaign, error)
	ListCampaigns(ctx context.Context, principal application.Principal) ([]persistence.Campaign, error)
	UpdateCampaign(ctx context.Context, principal application.Principal, id string, input application.CampaignInput) (persistence.Campaign, error)
	DeleteCampaign(ctx context.Context, principal application.Principal, id string) error
}

// CampaignHandler serves the organizer's campaign catalog.
type CampaignHandler struct {
	service   campaignService
	responder responder
	logger    *slog.Logger
}

func NewCampaignHandler(service campaignService, logger *slog.Logger) *CampaignHandler {
	base := defaultLogger(logger)
	return &CampaignHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CampaignHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CampaignHandler", operation, attrs...)
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.OrganizerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode campaign request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.OrganizerID)

	campaign, err := h.service.CreateCampaign(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("campaign_id", campaign.ID).InfoContext(r.Context(), "campaign created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, campaignResponse{Campaign: toCampaignDTO(campaign)})
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.OrganizerID)

	campaigns, err := h.service.ListCampaigns(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]campaignDTO, 0, len(campaigns))
	for _, campaign := range campaigns {
		dtos = append(dtos, toCampaignDTO(campaign))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campaignListResponse{Campaigns: dtos})
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := CampaignIDFromContext(r.Context())
	if !ok || strings.TrimSpace(campaignID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.OrganizerID, "campaign_id", campaignID)

	campaign, err := h.service.GetCampaign(r.Context(), principal, campaignID)
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, campaignResponse{Campaign: toCampaignDTO(campaign)})
}

func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := CampaignIDFromContext(r.Context())
	if !ok || strings.TrimSpace(campaignID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.OrganizerID, "campaign_id", campaignID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode campaign update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.OrganizerID, "campaign_id", campaignID)

	campaign, err := h.service.UpdateCampaign(r.Context(), principal, campaignID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "campaign updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campaignResponse{Campaign: toCampaignDTO(campaign)})
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := CampaignIDFromContext(r.Context())
	if !ok || strings.TrimSpace(campaignID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.OrganizerID, "campaign_id", campaignID)

	if err := h.service.DeleteCampaign(r.Context(), principal, campaignID); err != nil {
		logger.ErrorContext(r.Context(), "campaign deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "campaign deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type campaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r campaignRequest) toInput() application.CampaignInput {
	return application.CampaignInput{Title: r.Title, Description: r.Description}
}

type campaignDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type campaignResponse struct {
	Campaign campaignDTO `json:"campaign"`
}

type campaignListResponse struct {
	Campaigns []campaignDTO `json:"campaigns"`
}

func toCampaignDTO(campaign persistence.Campaign) campaignDTO {
	dto := campaignDTO{
		ID:        campaign.ID,
		Title:     campaign.Title,
		CreatedAt: campaign.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: campaign.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if campaign.Description != nil {
		dto.Description = *campaign.Description
	}
	return dto
}
