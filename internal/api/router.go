package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/actions", func(r chi.Router) {
				r.Get("/", s.handleListActions)
				r.Post("/", s.handleCreateAction)
				r.Post("/run", s.handleRunAdHoc)
				r.Post("/run-by-name", s.handleRunByName)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAction)
					r.Patch("/", s.handleUpdateAction)
					r.Delete("/", s.handleDeleteAction)
					r.Post("/run", s.handleRunAction)
					r.Post("/toggle", s.handleToggleAction)
				})
			})

			r.Post("/activations/{tag}", s.handleCustomActivation)
			r.Get("/running", s.handleRunning)
			r.Get("/history", s.handleHistory)
			r.Delete("/history", s.handleClearHistory)
			r.Get("/triggers", s.handleListTriggers)
			r.Post("/describe", s.handleDescribe)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Delete("/", s.handleClearNotifications)
				r.Delete("/{key}", s.handleDismissNotification)
			})

			r.Get("/audit", s.handleListAudit)

			r.Get("/state", s.handleShowState)
			r.Post("/slides/{index}/actions", s.handleAddSlideAction)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"actions": s.registry.GetActionCount(),
	})
}
