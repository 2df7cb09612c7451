package handler

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/profile"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// ProfileHandler handles profile and mentor-directory endpoints.
type ProfileHandler struct {
	service *profile.Service
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *profile.Service, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: svc,
		logger:  log,
	}
}

// Get handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Me handles GET /api/v1/me/profile
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), middleware.GetProfileID(r.Context()))
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateMe handles PUT /api/v1/me/profile
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateFullName(req.FullName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetProfileID(r.Context()), &req)
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadAvatar handles POST /api/v1/me/avatar (multipart field "avatar").
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing avatar file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	url, err := h.service.UploadAvatar(r.Context(), middleware.GetProfileID(r.Context()), ext, file)
	if err != nil {
		h.logger.Error("failed to upload avatar", zap.Error(err))
		writeError(w, http.StatusBadRequest, "avatar upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// Mentors handles GET /api/v1/mentors
func (h *ProfileHandler) Mentors(w http.ResponseWriter, r *http.Request) {
	mentors, err := h.service.Mentors(r.Context())
	if err != nil {
		h.logger.Error("failed to list mentors", zap.Error(err))
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mentors": mentors,
		"total":   len(mentors),
	})
}
