package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/middleware"
	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/service"
	"github.com/vendalia/opcenter/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	intake *service.Intake
	logger *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(intake *service.Intake, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		intake: intake,
		logger: log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.intake.History(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// Send handles POST /api/v1/conversations/{id}/messages. The message is
// recorded in history and enqueued for automated processing.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, entry, err := h.intake.RecordInbound(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to record inbound message",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		writeError(w, statusForError(err), "failed to record message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     msg,
		"queue_entry": entry,
	})
}
