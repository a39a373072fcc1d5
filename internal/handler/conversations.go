package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/middleware"
	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/service"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	intake    *service.Intake
	lifecycle *service.Lifecycle
	store     *store.Store
	logger    *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(intake *service.Intake, lifecycle *service.Lifecycle, st *store.Store, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		intake:    intake,
		lifecycle: lifecycle,
		store:     st,
		logger:    log,
	}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateChannelAddress(req.ChannelAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.intake.OpenConversation(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to open conversation", zap.Error(err))
		writeError(w, statusForError(err), "failed to open conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.ListConversations(r.Context())
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	})
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type transitionRequest struct {
	Status model.Status `json:"status"`
}

// Transition handles POST /api/v1/conversations/{id}/status
func (h *ConversationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.lifecycle.Transition(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type assignSellerRequest struct {
	SellerID string `json:"seller_id"`
}

// AssignSeller handles POST /api/v1/conversations/{id}/seller
func (h *ConversationHandler) AssignSeller(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req assignSellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateSellerID(req.SellerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.lifecycle.AssignSeller(r.Context(), id, req.SellerID)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type fallbackRequest struct {
	Enabled bool `json:"enabled"`
}

// SetFallback handles POST /api/v1/conversations/{id}/fallback
func (h *ConversationHandler) SetFallback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req fallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.lifecycle.SetFallbackMode(r.Context(), id, req.Enabled)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
