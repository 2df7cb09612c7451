package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *chat.Service
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *chat.Service, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages. Loading the history
// marks the viewer's unread messages as read.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown viewer role")
		return
	}

	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.service.LoadMessages(r.Context(), viewer, conversationID)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ListMessagesResponse{Messages: views})
}

// Send handles POST /api/v1/conversations/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown viewer role")
		return
	}

	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(conversationID); err != nil {
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

	msg, err := h.service.Send(r.Context(), viewer, conversationID, req.Content)
	if err != nil {
		h.logger.Error("failed to send message", zap.Error(err))
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
