package handlers

import (
	"net/http"

	"bloodbank/internal/health"
)

// Service identity reported by the version endpoint.
const (
	ServiceName    = "bloodbank-dhis2-sync"
	ServiceVersion = "1.0.0"
	APIPrefix      = "/api/v1"
)

// HealthCheck handles GET /health.
func (a *App) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := a.Health.Report(r.Context())
	code := http.StatusOK
	if rep.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	a.json(w, code, rep)
}

// Liveness handles GET /health/live.
func (a *App) Liveness(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The service is ready once the
// database answers; the registry being down does not block readiness.
func (a *App) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := a.Health.DBReady(r.Context()); err != nil {
		a.json(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"detail": err.Error(),
		})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Metrics handles GET /health/metrics.
func (a *App) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := a.Products.Metrics(r.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("metrics query failed")
		a.error(w, http.StatusInternalServerError, "metrics query failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_donations":         m.TotalDonations,
		"total_products":          m.TotalProducts,
		"available_products":      m.AvailableProducts,
		"expired_products":        m.ExpiredProducts,
		"blood_type_distribution": m.ByBloodType,
	})
}

// Version handles GET /health/version.
func (a *App) Version(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"service":    ServiceName,
		"version":    ServiceVersion,
		"api_prefix": APIPrefix,
	})
}
