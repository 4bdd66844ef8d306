package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-overlay/internal/web/handlers"
	"github.com/kozaktomas/face-overlay/internal/web/middleware"
	"github.com/kozaktomas/face-overlay/internal/web/static"
)

func (s *Server) setupRoutes() {
	sessionHandler := handlers.NewSessionHandler(s.session, s.camera, s.notices, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Server-sent events stay open for the life of the client.
		r.Get("/events", sessionHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(requestTimeout))

			r.Get("/state", sessionHandler.State)

			// Photo acquisition
			r.Get("/photo", sessionHandler.Photo)
			r.Post("/photo", sessionHandler.Upload)
			r.Post("/photo/capture", sessionHandler.Capture)

			// Actions
			r.Post("/process", sessionHandler.Process)
			r.Post("/notice/dismiss", sessionHandler.DismissNotice)
			r.Post("/share", sessionHandler.Share)
		})
	})

	// Viewer page
	viewer := http.FileServerFS(static.Files())
	s.router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))
		r.Use(middleware.SecurityHeaders())
		r.Get("/", viewer.ServeHTTP)
		r.Get("/app.js", viewer.ServeHTTP)
	})
}
