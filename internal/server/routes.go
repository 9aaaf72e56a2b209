package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Use(jsonContentType)
		r.Use(corsMiddleware(s.corsOrigin))

		r.Post("/slideshow/start", s.handleStartSlideshow)
		r.Post("/slideshow/stop", s.handleStopSlideshow)
		r.Post("/slideshow/pause", s.handlePauseSlideshow)
		r.Post("/slideshow/resume", s.handleResumeSlideshow)
		r.Post("/slideshow/photo-of-the-day", s.handlePhotoOfTheDay)

		r.Post("/web/start", s.handleWebStart)
		r.Post("/web/stop", s.handleWebStop)

		r.Get("/resume", s.handleListResume)
		r.Post("/resume/reset", s.handleResetResume)

		r.Get("/sessions", s.handleListSessions)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(corsMiddleware(s.corsOrigin))
		r.Get("/api/ws", s.handleSessionStream)
		r.Get("/photos/{playerID}/*", s.handlePhoto)
		r.Get("/web", s.handleWebViewer)
		r.Get("/web/current", s.handleWebCurrent)
		r.Get("/web/photos/*", s.handleWebFile)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
