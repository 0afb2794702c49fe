package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/climbup/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/climbup/booking-platform/internal/http/middleware"
	"github.com/climbup/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.BookingHandler
	ConsultantsHandler *handlers.ConsultantsHandler
	PaymentsHandler    *handlers.PaymentsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a chi router with all routes configured.
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

	// Operational endpoints stay outside the rate limit.
	r.Group(func(ops chi.Router) {
		ops.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			ops.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Group(func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}

		if cfg.BookingHandler != nil {
			api.Get("/availability", cfg.BookingHandler.CheckAvailability)
			api.Route("/holds", func(r chi.Router) {
				r.Post("/", cfg.BookingHandler.CreateHold)
				r.Get("/{holdID}", cfg.BookingHandler.ValidateHold)
				r.Post("/{holdID}/convert", cfg.BookingHandler.ConvertHold)
			})
		}

		if cfg.ConsultantsHandler != nil {
			api.Route("/consultants", func(r chi.Router) {
				r.Get("/match", cfg.ConsultantsHandler.Match)
				r.Get("/{consultantID}/slots", cfg.ConsultantsHandler.Slots)
			})
		}

		if cfg.PaymentsHandler != nil {
			api.Post("/payments/{paymentID}/confirm", cfg.PaymentsHandler.Confirm)
		}
	})

	return r
}
