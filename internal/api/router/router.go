// Package router assembles the public HTTP surface of the lead intake
// service.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/park63/lead-intake/internal/http/middleware"
	"github.com/park63/lead-intake/internal/leads"
	"github.com/park63/lead-intake/internal/units"
	"github.com/park63/lead-intake/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	UnitsHandler       *units.Handler // optional; nil disables the units routes
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Transport throttle in front of the whole API. Zero disables it.
	ThrottleRate  float64
	ThrottleBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.ThrottleRate > 0 && cfg.ThrottleBurst > 0 {
		r.Use(httpmiddleware.Throttle(cfg.ThrottleRate, cfg.ThrottleBurst))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/submit-lead", cfg.LeadsHandler.SubmitLead)
		if cfg.UnitsHandler != nil {
			api.Get("/available-units", cfg.UnitsHandler.Snapshot)
			api.Get("/available-units/stream", cfg.UnitsHandler.Stream)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
