package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/internal/assistant"
	"github.com/afyalink/afya-platform/internal/chat"
	"github.com/afyalink/afya-platform/internal/directory"
	httpmiddleware "github.com/afyalink/afya-platform/internal/http/middleware"
	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/internal/notify"
	"github.com/afyalink/afya-platform/internal/timetable"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	TimetableHandler    *timetable.Handler
	DirectoryHandler    *directory.Handler
	NotifyHandler       *notify.Handler
	ChatHandler         *chat.Handler
	AssistantHandler    *assistant.Handler
	MetricsHandler      http.Handler
	AuthJWTSecret       string
	CORSAllowedOrigins  []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	auth := httpmiddleware.Auth(cfg.AuthJWTSecret)

	// Public surface: health, metrics, the marketplace directory, the
	// published timetable and slot availability, and the assistant.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.DirectoryHandler != nil {
		r.Mount("/directory", cfg.DirectoryHandler.Routes())
	}
	if cfg.TimetableHandler != nil {
		r.Get("/doctors/{doctorID}/timetable", cfg.TimetableHandler.ListForDoctor)
	}
	if cfg.AppointmentsHandler != nil {
		r.Get("/doctors/{doctorID}/slots", cfg.AppointmentsHandler.GetSlots)
	}
	if cfg.AssistantHandler != nil {
		r.Mount("/assistant", cfg.AssistantHandler.Routes())
	}

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(auth)

		if cfg.AppointmentsHandler != nil {
			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Book)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
				r.With(httpmiddleware.RequireRole(identity.RoleDoctor)).Post("/{appointmentID}/accept", cfg.AppointmentsHandler.Accept)
				r.With(httpmiddleware.RequireRole(identity.RoleDoctor)).Post("/{appointmentID}/decline", cfg.AppointmentsHandler.Decline)
				r.With(httpmiddleware.RequireRole(identity.RoleDoctor)).Post("/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)

				if cfg.ChatHandler != nil {
					r.Mount("/{appointmentID}/chat", cfg.ChatHandler.Routes())
				}
			})
		}

		if cfg.TimetableHandler != nil {
			r.Route("/timetable", func(r chi.Router) {
				r.Use(httpmiddleware.RequireRole(identity.RoleDoctor))
				r.Get("/", cfg.TimetableHandler.ListMine)
				r.Post("/", cfg.TimetableHandler.Create)
				r.Put("/{entryID}", cfg.TimetableHandler.Update)
				r.Delete("/{entryID}", cfg.TimetableHandler.Delete)
			})
		}

		if cfg.NotifyHandler != nil {
			r.Mount("/notifications", cfg.NotifyHandler.Routes())
		}
	})

	return r
}
