package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/auth"
	"github.com/villahermosa/clinic-platform/internal/finance"
	httpmiddleware "github.com/villahermosa/clinic-platform/internal/http/middleware"
	"github.com/villahermosa/clinic-platform/internal/inventory"
	"github.com/villahermosa/clinic-platform/internal/messages"
	"github.com/villahermosa/clinic-platform/internal/notifications"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/paymentmethods"
	"github.com/villahermosa/clinic-platform/internal/payments"
	"github.com/villahermosa/clinic-platform/internal/staff"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	AuthService          *auth.Service
	AuthHandler          *auth.Handler
	AppointmentsHandler  *appointments.Handler
	PaymentsHandler      *payments.Handler
	PatientsHandler      *patients.Handler
	FinanceHandler       *finance.Handler
	StaffHandler         *staff.Handler
	InventoryHandler     *inventory.Handler
	MessagesHandler      *messages.Handler
	NotificationsHandler *notifications.Handler
	PaymentMethods       *paymentmethods.Handler
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string

	// Public booking rate limit; zero disables it.
	PublicRatePerSec float64
	PublicBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints (health, metrics, logins, portal booking)
	r.Group(func(public chi.Router) {
		public.Get("/api/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Mount("/api/auth", cfg.AuthHandler.Routes())
		}
		if cfg.AppointmentsHandler != nil {
			booking := cfg.AppointmentsHandler.PublicRoutes()
			if cfg.PublicRatePerSec > 0 {
				public.With(httpmiddleware.RateLimit(cfg.PublicRatePerSec, cfg.PublicBurst)).
					Mount("/api/public/appointments", booking)
			} else {
				public.Mount("/api/public/appointments", booking)
			}
		}
	})

	// Staff-facing endpoints behind the admin token.
	r.Route("/api", func(api chi.Router) {
		if cfg.AuthService != nil {
			api.Use(httpmiddleware.RequireRole(cfg.AuthService, auth.RoleAdmin))
		}
		if cfg.AppointmentsHandler != nil {
			api.Mount("/appointments", cfg.AppointmentsHandler.Routes())
		}
		if cfg.PaymentsHandler != nil {
			api.Mount("/payments", cfg.PaymentsHandler.Routes())
		}
		if cfg.PatientsHandler != nil {
			api.Mount("/patients", cfg.PatientsHandler.Routes())
		}
		if cfg.FinanceHandler != nil {
			api.Mount("/finance", cfg.FinanceHandler.Routes())
		}
		if cfg.StaffHandler != nil {
			api.Mount("/staff", cfg.StaffHandler.Routes())
		}
		if cfg.InventoryHandler != nil {
			api.Mount("/inventory", cfg.InventoryHandler.Routes())
		}
		if cfg.MessagesHandler != nil {
			api.Mount("/messages", cfg.MessagesHandler.Routes())
		}
		if cfg.NotificationsHandler != nil {
			api.Mount("/notifications", cfg.NotificationsHandler.Routes())
		}
		if cfg.PaymentMethods != nil {
			api.Mount("/payment-methods", cfg.PaymentMethods.Routes())
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
