package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *chat.Service
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *chat.Service, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown viewer role")
		return
	}

	views, err := h.service.LoadConversations(r.Context(), viewer)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: views,
		Total:         len(views),
	})
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown viewer role")
		return
	}
	mentee, ok := viewer.(chat.Mentee)
	if !ok {
		writeChatError(w, chat.ErrInvalidRole)
		return
	}

	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.MentorID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.CreateConversation(r.Context(), mentee, req.MentorID)
	if err != nil {
		h.logger.Error("failed to create conversation", zap.Error(err))
		writeChatError(w, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}
