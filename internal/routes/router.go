package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"bjugstad/fleetsync/internal/api"
	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/db"
	"bjugstad/fleetsync/internal/db/repositories"
	"bjugstad/fleetsync/internal/jobs"
	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/metrics"
	"bjugstad/fleetsync/internal/middleware"
)

// RegisterRoutes builds the ops router: health check plus the admin job
// endpoints behind the operator key.
func RegisterRoutes(
	upSince time.Time,
	cfg *config.Resolver,
	metricsReg *metrics.MetricsRegistry,
	jobsContainer *jobs.JobsContainer,
	historyRepo *repositories.SyncHistoryRepo,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, upSince))

	jobsHandler := api.NewJobsHandler(jobsContainer, historyRepo)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuthMiddleware(cfg))
		r.Get("/jobs/status", jobsHandler.GetJobStatus())
		r.Post("/jobs/{job}/run", jobsHandler.TriggerJob())
	})

	logging.Info("router initialized", "admin_routes", "/api/v1/admin")
	return r
}
