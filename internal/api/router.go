package api

import (
	"net/http"
	"time"

	"cf_finder/internal/api/handler"
	"cf_finder/internal/api/middleware"
	"cf_finder/internal/app/service"
	"cf_finder/internal/platform/telemetry"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	finderService *service.FinderService,
	metrics *telemetry.Metrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Metrics(metrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Session)

		queryHandler := handler.NewQueryHandler(finderService)
		v1.Group(queryHandler.RegisterRoutes)

		historyHandler := handler.NewHistoryHandler(finderService)
		v1.Route("/history", historyHandler.RegisterRoutes)
	})

	return r
}
