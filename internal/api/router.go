package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const defaultWSPath = "/api/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Notification socket (public)
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = defaultWSPath
	}
	r.Get(wsPath, s.hub.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		// Public listings
		r.Get("/authors", s.handleListAuthors)
		r.Get("/posts", s.handleListPosts)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/authors", s.handleCreateAuthor)
			r.Route("/authors/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAuthor)
				r.Patch("/", s.handleUpdateAuthor)
				r.Delete("/", s.handleDeleteAuthor)
			})

			r.Post("/posts", s.handleCreatePost)
			r.Get("/posts/author/{id}", s.handleListPostsByAuthor)
			r.Route("/posts/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPost)
				r.Patch("/", s.handleUpdatePost)
				r.Delete("/", s.handleDeletePost)
			})

			r.Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth reports server and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Error("database health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"version": s.version,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
