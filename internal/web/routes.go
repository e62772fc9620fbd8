package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	identitiesHandler := handlers.NewIdentitiesHandler(s.service)
	capturesHandler := handlers.NewCapturesHandler(s.service)
	attendanceHandler := handlers.NewAttendanceHandler(s.service.Ledger())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Registration
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Create)
		r.Post("/identities/image", identitiesHandler.CreateFromImage)

		// Capture events
		r.Post("/captures", capturesHandler.Process)
		r.Post("/captures/image", capturesHandler.ProcessImage)

		// Attendance log
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/export", attendanceHandler.Export)
	})
}
