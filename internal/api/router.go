package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
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

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/alexa/smarthome", s.handleSmartHome)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleSmartHome accepts a raw Smart Home directive envelope and returns
// the dispatcher's response.
//
// A decodable directive always yields HTTP 200: directive-level failures
// travel inside the response envelope, matching what the Lambda surface
// returns to the platform.
func (s *Server) handleSmartHome(w http.ResponseWriter, r *http.Request) {
	var req alexa.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid directive envelope")
		return
	}
	if req.Directive.Header.Namespace == "" || req.Directive.Header.Name == "" {
		writeBadRequest(w, "directive header is incomplete")
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), &req)
	writeJSON(w, http.StatusOK, resp)
}
