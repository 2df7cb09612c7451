// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeChatError maps chat/store errors onto HTTP responses. Client-side
// validation faults become 4xx; backend faults become a generic 500 so raw
// errors never cross the boundary.
func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrNoActiveConversation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrAlreadySending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrInvalidRole),
		errors.Is(err, chat.ErrNotParticipant):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// viewerFrom builds the chat viewer for the authenticated request.
func viewerFrom(r *http.Request) (chat.Viewer, error) {
	return chat.NewViewer(model.Profile{
		ID:   middleware.GetProfileID(r.Context()),
		Role: middleware.GetRole(r.Context()),
	})
}
