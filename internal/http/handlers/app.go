package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"bloodbank/internal/domain"
	"bloodbank/internal/health"
	"bloodbank/internal/importer"
	"bloodbank/internal/syncer"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Importer *importer.Importer
	Sync     *syncer.Orchestrator
	Health   *health.Aggregator
	Jobs     domain.SyncJobRepository
	Products domain.ProductRepository
	Log      zerolog.Logger
}

// NewApp wires the handler container.
func NewApp(
	imp *importer.Importer,
	sync *syncer.Orchestrator,
	hlth *health.Aggregator,
	jobs domain.SyncJobRepository,
	products domain.ProductRepository,
	log zerolog.Logger,
) *App {
	return &App{
		Importer: imp,
		Sync:     sync,
		Health:   hlth,
		Jobs:     jobs,
		Products: products,
		Log:      log,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg, detail string) {
	a.json(w, code, map[string]string{
		"error":     msg,
		"detail":    detail,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
