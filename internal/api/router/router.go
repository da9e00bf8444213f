// Package router wires the HTTP surface: public health and metrics, and the
// secret-guarded job endpoints the scheduler calls.
package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/http/handlers"
	httpmiddleware "github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/http/middleware"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Jobs           *handlers.JobsHandler
	ServiceSecret  string
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Jobs != nil {
		r.Route("/reminders", func(jobs chi.Router) {
			jobs.Use(httpmiddleware.ServiceSecret(cfg.ServiceSecret, cfg.Logger))
			jobs.Post("/trigger", cfg.Jobs.TriggerReminders)
			jobs.Post("/send/{appointmentID}", cfg.Jobs.SendReminder)
			jobs.Post("/cleanup-payment-holds", cfg.Jobs.CleanupPaymentHolds)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
