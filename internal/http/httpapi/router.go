package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"bloodbank/internal/http/handlers"
	"bloodbank/internal/middleware"
)

// RateLimits carries the per-minute budgets for each route group.
type RateLimits struct {
	General int
	Import  int
	Sync    int
}

// NewRouter builds the versioned API router. Health routes are exempt from
// rate limiting; import and sync routes get tighter budgets on top of the
// general one.
func NewRouter(app *handlers.App, log zerolog.Logger, limits RateLimits) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(log),
	)

	r.Route(handlers.APIPrefix, func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", app.HealthCheck)
			r.Get("/live", app.Liveness)
			r.Get("/ready", app.Readiness)
			r.Get("/metrics", app.Metrics)
			r.Get("/version", app.Version)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limits.General, time.Minute))

			r.Route("/import", func(r chi.Router) {
				r.Use(middleware.RateLimit(limits.Import, time.Minute))
				r.Post("/donors", app.ImportDonors)
				r.Post("/donations", app.ImportDonations)
				r.Post("/blood-products", app.ImportProducts)
				r.Post("/screening-results", app.ImportScreeningResults)
				r.Post("/stock-movements", app.ImportMovements)
			})

			r.Route("/sync", func(r chi.Router) {
				r.Get("/status", app.SyncStatus)
				r.Get("/logs/{sync_id}", app.SyncLog)
				r.Delete("/cache", app.ClearSyncCache)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(limits.Sync, time.Minute))
					r.Post("/donations", app.SyncDonations)
					r.Post("/inventory", app.SyncInventory)
					r.Post("/donors", app.SyncDonors)
					r.Post("/full", app.SyncFull)
				})
			})
		})
	})

	return r
}
