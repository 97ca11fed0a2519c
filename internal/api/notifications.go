package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListNotifications returns the pending operator notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	var pending []string
	if s.notices != nil {
		pending = s.notices.Pending()
	}
	if pending == nil {
		pending = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending, "count": len(pending)})
}

// handleDismissNotification removes one pending notification.
func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" || len(key) > maxQueryParamLen {
		writeBadRequest(w, "invalid notification key")
		return
	}
	if s.notices == nil || !s.notices.Dismiss(key) {
		writeNotFound(w, "notification not pending")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearNotifications removes every pending notification.
func (s *Server) handleClearNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.notices != nil {
		s.notices.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}
