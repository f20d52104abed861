package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/point-wallet/internal/api/handlers"
	"github.com/baharkarakas/point-wallet/internal/config"
	"github.com/baharkarakas/point-wallet/internal/metrics"
	"github.com/baharkarakas/point-wallet/internal/middleware"
)

func NewRouter(cfg config.Config, svc handlers.PointAPI, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(log), middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	ph := handlers.NewPoint(svc)
	r.Route("/point", func(r chi.Router) {
		r.Post("/batch", ph.Batch)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ph.Balance)
			r.Get("/histories", ph.History)
			r.Patch("/charge", ph.Charge)
			r.Patch("/use", ph.Use)
		})
	})

	return r
}
