package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bloodbank/internal/domain"
)

type syncStartedResponse struct {
	Status  string `json:"status"`
	SyncID  string `json:"sync_id"`
	Message string `json:"message"`
}

func (a *App) startSync(w http.ResponseWriter, r *http.Request, typ domain.SyncType) {
	daysBack := 0
	if raw := r.URL.Query().Get("days_back"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "invalid days_back", fmt.Sprintf("days_back %q is not a non-negative integer", raw))
			return
		}
		daysBack = n
	}

	syncID, err := a.Sync.Start(r.Context(), typ, daysBack)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			a.error(w, http.StatusConflict, "sync already in progress", fmt.Sprintf("a %s sync is already running", typ))
			return
		}
		a.Log.Error().Err(err).Str("sync_type", string(typ)).Msg("sync start failed")
		a.error(w, http.StatusInternalServerError, "sync start failed", err.Error())
		return
	}

	a.json(w, http.StatusAccepted, syncStartedResponse{
		Status:  "started",
		SyncID:  syncID,
		Message: fmt.Sprintf("%s sync started", typ),
	})
}

// SyncDonations handles POST /sync/donations.
func (a *App) SyncDonations(w http.ResponseWriter, r *http.Request) {
	a.startSync(w, r, domain.SyncDonations)
}

// SyncInventory handles POST /sync/inventory.
func (a *App) SyncInventory(w http.ResponseWriter, r *http.Request) {
	a.startSync(w, r, domain.SyncInventory)
}

// SyncDonors handles POST /sync/donors.
func (a *App) SyncDonors(w http.ResponseWriter, r *http.Request) {
	a.startSync(w, r, domain.SyncDonors)
}

// SyncFull handles POST /sync/full.
func (a *App) SyncFull(w http.ResponseWriter, r *http.Request) {
	a.startSync(w, r, domain.SyncFull)
}

// SyncStatus handles GET /sync/status.
func (a *App) SyncStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Sync.Status(r.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("sync status failed")
		a.error(w, http.StatusInternalServerError, "sync status failed", err.Error())
		return
	}

	var lastSync *string
	if summary.LastSync != nil {
		s := summary.LastSync.UTC().Format(time.RFC3339)
		lastSync = &s
	}
	errs := summary.Errors
	if errs == nil {
		errs = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"last_sync_at":       lastSync,
		"status":             summary.State,
		"records_synced_24h": summary.RecordsSynced,
		"recent_errors":      errs,
	})
}

type syncLogResponse struct {
	SyncID           string     `json:"sync_id"`
	SyncType         string     `json:"sync_type"`
	Status           string     `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsSuccess   int        `json:"records_success"`
	RecordsFailed    int        `json:"records_failed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	DHIS2Response    string     `json:"dhis2_response,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// SyncLog handles GET /sync/logs/{sync_id}.
func (a *App) SyncLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sync_id")
	job, err := a.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "sync log not found", fmt.Sprintf("no sync job with id %s", id))
			return
		}
		a.Log.Error().Err(err).Str("sync_id", id).Msg("sync log lookup failed")
		a.error(w, http.StatusInternalServerError, "sync log lookup failed", err.Error())
		return
	}

	a.json(w, http.StatusOK, syncLogResponse{
		SyncID:           job.ID,
		SyncType:         string(job.Type),
		Status:           string(job.Status),
		RecordsProcessed: job.RecordsProcessed,
		RecordsSuccess:   job.RecordsSuccess,
		RecordsFailed:    job.RecordsFailed,
		ErrorMessage:     job.ErrorMessage,
		DHIS2Response:    job.RemoteResponse,
		StartedAt:        job.StartedAt,
		CompletedAt:      job.CompletedAt,
	})
}

// ClearSyncCache handles DELETE /sync/cache.
func (a *App) ClearSyncCache(w http.ResponseWriter, r *http.Request) {
	a.Sync.Cache().Clear()
	a.json(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "sync cache cleared",
	})
}
