// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskledger/internal/adapters/http/handlers"
	"taskledger/internal/adapters/http/middleware"
)

// NewRouter creates an HTTP handler with all application routes registered.
// Global middleware is applied in the order given; auth guards only the
// /api/v1 group so that health probes stay unauthenticated.
func NewRouter(
	projectHandler *handlers.ProjectHandler,
	taskHandler *handlers.TaskHandler,
	healthHandler *handlers.HealthHandler,
	auth func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		// Project operations.
		r.Get("/projects", projectHandler.ListProjects)
		r.Post("/projects", projectHandler.CreateProject)
		r.Get("/projects/{id}", projectHandler.GetProject)
		r.Put("/projects/{id}", projectHandler.UpdateProject)
		r.Post("/projects/{id}/archive", projectHandler.ArchiveProject)
		r.Post("/projects/{id}/restore", projectHandler.RestoreProject)
		r.Get("/projects/{id}/history", projectHandler.ProjectHistory)

		// Tasks nested under their owning project.
		r.Get("/projects/{projectId}/tasks", taskHandler.ListProjectTasks)
		r.Post("/projects/{projectId}/tasks", taskHandler.CreateTask)

		// Flat task operations.
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Post("/tasks/{id}/close", taskHandler.CloseTask)
		r.Post("/tasks/{id}/reopen", taskHandler.ReopenTask)
		r.Get("/tasks/{id}/history", taskHandler.TaskHistory)
	})

	return middleware.Chain(middlewares...)(r)
}
