// Package syncer drives the export jobs against the external registry. A
// job-start request is a fast synchronous compare-and-swap on the per-type
// status row; the export itself runs on its own goroutine under a bounded
// timeout and publishes its outcome through the sync job log.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bloodbank/internal/dhis2"
	"bloodbank/internal/domain"
)

// DefaultDaysBack is the donation window when the caller does not give one.
const DefaultDaysBack = 7

// fullSyncDaysBack is the donation window used by the full sync composite.
const fullSyncDaysBack = 30

// Registry is the view of the external system the orchestrator exports to.
type Registry interface {
	ExportDonations(ctx context.Context, donations []domain.Donation) (*dhis2.ImportSummary, error)
	ExportInventory(ctx context.Context, products []domain.BloodProduct) (*dhis2.ImportSummary, error)
	ExportDonors(ctx context.Context, donors []domain.Donor) (*dhis2.ImportSummary, error)
}

// Options tune job execution.
type Options struct {
	// JobTimeout bounds one job end to end. A job past the bound is forced
	// into FAILED and its type lock released.
	JobTimeout time.Duration
	// BatchSize is the number of donation records per registry call.
	BatchSize int
}

// Orchestrator serializes export jobs per sync type and records every run.
type Orchestrator struct {
	jobs      domain.SyncJobRepository
	status    domain.SyncStatusRepository
	donors    domain.DonorRepository
	donations domain.DonationRepository
	products  domain.ProductRepository
	registry  Registry
	cache     *DedupCache
	log       zerolog.Logger

	jobTimeout time.Duration
	batchSize  int
	now        func() time.Time
}

// New wires an Orchestrator.
func New(
	jobs domain.SyncJobRepository,
	status domain.SyncStatusRepository,
	donors domain.DonorRepository,
	donations domain.DonationRepository,
	products domain.ProductRepository,
	registry Registry,
	cache *DedupCache,
	opts Options,
	log zerolog.Logger,
) *Orchestrator {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Orchestrator{
		jobs:       jobs,
		status:     status,
		donors:     donors,
		donations:  donations,
		products:   products,
		registry:   registry,
		cache:      cache,
		log:        log,
		jobTimeout: opts.JobTimeout,
		batchSize:  opts.BatchSize,
		now:        time.Now,
	}
}

// Cache exposes the dedup cache for the operational clear endpoint.
func (o *Orchestrator) Cache() *DedupCache { return o.cache }

// Start acquires the type lock, records a new job and schedules it. It
// returns the job id immediately; callers poll the sync log for the
// outcome. A type already syncing yields domain.ErrSyncInProgress.
func (o *Orchestrator) Start(ctx context.Context, typ domain.SyncType, daysBack int) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("unknown sync type %q", typ)
	}
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}

	if err := o.status.TryAcquire(ctx, typ); err != nil {
		return "", err
	}

	job := &domain.SyncJob{
		ID:        uuid.NewString(),
		Type:      typ,
		Status:    domain.JobStarted,
		StartedAt: o.now().UTC(),
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		_ = o.status.Release(ctx, typ, domain.StateError, 0)
		return "", fmt.Errorf("recording sync job: %w", err)
	}

	go o.run(job.ID, typ, daysBack)

	o.log.Info().Str("sync_id", job.ID).Str("type", string(typ)).Msg("sync started")
	return job.ID, nil
}

type exportResult struct {
	processed int
	success   int
	response  string
}

// run executes one job to completion. It never uses the request context:
// the job owns its own deadline.
func (o *Orchestrator) run(jobID string, typ domain.SyncType, daysBack int) {
	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	res, err := o.export(ctx, typ, daysBack)

	// Completion writes must survive an expired job deadline.
	finishCtx, finishCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer finishCancel()

	failed := res.processed - res.success
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("sync timed out after %s", o.jobTimeout)
		}
		if cerr := o.jobs.Complete(finishCtx, jobID, domain.JobFailed, res.processed, res.success, failed, msg, res.response); cerr != nil {
			o.log.Error().Err(cerr).Str("sync_id", jobID).Msg("failed to record job failure")
		}
		if rerr := o.status.Release(finishCtx, typ, domain.StateError, res.success); rerr != nil {
			o.log.Error().Err(rerr).Str("sync_id", jobID).Msg("failed to release sync lock")
		}
		o.log.Error().Err(err).Str("sync_id", jobID).Str("type", string(typ)).Msg("sync failed")
		return
	}

	if cerr := o.jobs.Complete(finishCtx, jobID, domain.JobSuccess, res.processed, res.success, failed, "", res.response); cerr != nil {
		o.log.Error().Err(cerr).Str("sync_id", jobID).Msg("failed to record job completion")
	}
	if rerr := o.status.Release(finishCtx, typ, domain.StateHealthy, res.success); rerr != nil {
		o.log.Error().Err(rerr).Str("sync_id", jobID).Msg("failed to release sync lock")
	}
	o.log.Info().
		Str("sync_id", jobID).
		Str("type", string(typ)).
		Int("processed", res.processed).
		Int("success", res.success).
		Int("failed", failed).
		Msg("sync completed")
}

func (o *Orchestrator) export(ctx context.Context, typ domain.SyncType, daysBack int) (exportResult, error) {
	switch typ {
	case domain.SyncDonations:
		return o.exportDonations(ctx, daysBack)
	case domain.SyncInventory:
		return o.exportInventory(ctx)
	case domain.SyncDonors:
		return o.exportDonors(ctx)
	case domain.SyncFull:
		return o.exportFull(ctx)
	}
	return exportResult{}, fmt.Errorf("unknown sync type %q", typ)
}

// exportDonations sends the donation window in batches, skipping records
// whose fingerprint the cache already holds. Fingerprints are remembered
// per accepted batch, so a later failure only re-exposes the remaining
// window to the next sync.
func (o *Orchestrator) exportDonations(ctx context.Context, daysBack int) (exportResult, error) {
	cutoff := o.now().UTC().AddDate(0, 0, -daysBack)
	window, err := o.donations.ListSince(ctx, cutoff)
	if err != nil {
		return exportResult{}, fmt.Errorf("loading donation window: %w", err)
	}

	fresh := make([]domain.Donation, 0, len(window))
	fingerprints := make(map[string]string, len(window))
	for _, d := range window {
		fp := Fingerprint(d)
		if o.cache.Seen(domain.SyncDonations, d.ID, fp) {
			continue
		}
		fingerprints[d.ID] = fp
		fresh = append(fresh, d)
	}

	res := exportResult{processed: len(fresh)}
	for start := 0; start < len(fresh); start += o.batchSize {
		end := start + o.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		batch := fresh[start:end]

		summary, err := o.registry.ExportDonations(ctx, batch)
		if summary != nil && summary.Raw != "" {
			res.response = summary.Raw
		}
		if err != nil {
			return res, err
		}
		res.success += acceptedRecords(summary, len(batch))
		for _, d := range batch {
			o.cache.Remember(domain.SyncDonations, d.ID, fingerprints[d.ID])
		}
	}
	return res, nil
}

// exportInventory sends the current inventory snapshot as aggregated
// counts. Unchanged products are dropped from the snapshot first.
func (o *Orchestrator) exportInventory(ctx context.Context) (exportResult, error) {
	inventory, err := o.products.ListInventory(ctx)
	if err != nil {
		return exportResult{}, fmt.Errorf("loading inventory snapshot: %w", err)
	}

	fresh := make([]domain.BloodProduct, 0, len(inventory))
	fingerprints := make(map[string]string, len(inventory))
	for _, p := range inventory {
		fp := Fingerprint(p)
		if o.cache.Seen(domain.SyncInventory, p.ID, fp) {
			continue
		}
		fingerprints[p.ID] = fp
		fresh = append(fresh, p)
	}

	res := exportResult{processed: len(fresh)}
	if len(fresh) == 0 {
		return res, nil
	}

	summary, err := o.registry.ExportInventory(ctx, fresh)
	if summary != nil && summary.Raw != "" {
		res.response = summary.Raw
	}
	if err != nil {
		return res, err
	}
	res.success = acceptedRecords(summary, len(fresh))
	for _, p := range fresh {
		o.cache.Remember(domain.SyncInventory, p.ID, fingerprints[p.ID])
	}
	return res, nil
}

// exportDonors registers donors as tracked entities. The registry takes
// them one at a time, so on failure the accepted prefix stays counted and
// cached.
func (o *Orchestrator) exportDonors(ctx context.Context) (exportResult, error) {
	donors, err := o.donors.List(ctx)
	if err != nil {
		return exportResult{}, fmt.Errorf("loading donors: %w", err)
	}

	fresh := make([]domain.Donor, 0, len(donors))
	fingerprints := make(map[string]string, len(donors))
	for _, d := range donors {
		fp := Fingerprint(d)
		if o.cache.Seen(domain.SyncDonors, d.ID, fp) {
			continue
		}
		fingerprints[d.ID] = fp
		fresh = append(fresh, d)
	}

	res := exportResult{processed: len(fresh)}
	if len(fresh) == 0 {
		return res, nil
	}

	summary, err := o.registry.ExportDonors(ctx, fresh)
	if summary != nil {
		res.response = summary.Raw
		res.success = summary.Imported
		if res.success > len(fresh) {
			res.success = len(fresh)
		}
		for _, d := range fresh[:res.success] {
			o.cache.Remember(domain.SyncDonors, d.ID, fingerprints[d.ID])
		}
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// exportFull runs donations, inventory and donors sequentially under the
// FULL lock. Counters accumulate across phases; a failing phase fails the
// composite but keeps the finished phases' results.
func (o *Orchestrator) exportFull(ctx context.Context) (exportResult, error) {
	phases := []struct {
		name string
		fn   func(context.Context) (exportResult, error)
	}{
		{"donations", func(ctx context.Context) (exportResult, error) {
			return o.exportDonations(ctx, fullSyncDaysBack)
		}},
		{"inventory", o.exportInventory},
		{"donors", o.exportDonors},
	}

	var total exportResult
	var responses []string
	for _, phase := range phases {
		res, err := phase.fn(ctx)
		total.processed += res.processed
		total.success += res.success
		if res.response != "" {
			responses = append(responses, phase.name+": "+res.response)
		}
		if err != nil {
			total.response = strings.Join(responses, "\n")
			return total, fmt.Errorf("%s phase: %w", phase.name, err)
		}
	}
	total.response = strings.Join(responses, "\n")
	return total, nil
}

// acceptedRecords converts a registry import summary into a record count.
// A clean summary accepts the whole batch; otherwise the registry's own
// accepted count bounds it.
func acceptedRecords(summary *dhis2.ImportSummary, batchLen int) int {
	if summary == nil {
		return 0
	}
	if summary.Status == "SUCCESS" && len(summary.Conflicts) == 0 {
		return batchLen
	}
	accepted := summary.Accepted()
	if accepted > batchLen {
		accepted = batchLen
	}
	return accepted
}

// StatusSummary is the aggregate view served by the sync status endpoint.
type StatusSummary struct {
	LastSync      *time.Time
	State         domain.TypeState
	RecordsSynced int
	Errors        []string
}

// Status composes the latest outcome across sync types: the most recent
// successful completion, records accepted in the last 24 hours, recent
// failure messages and the combined state (syncing wins over error, error
// over healthy, healthy over idle).
func (o *Orchestrator) Status(ctx context.Context) (*StatusSummary, error) {
	lastSync, err := o.jobs.LastSuccessAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading last sync: %w", err)
	}
	since := o.now().UTC().Add(-24 * time.Hour)
	synced, err := o.jobs.RecordsSyncedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("counting synced records: %w", err)
	}
	recentErrors, err := o.jobs.RecentErrors(ctx, since, 5)
	if err != nil {
		return nil, fmt.Errorf("loading recent errors: %w", err)
	}
	statuses, err := o.status.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading type statuses: %w", err)
	}

	state := domain.StateIdle
	for _, st := range statuses {
		switch st.State {
		case domain.StateSyncing:
			state = domain.StateSyncing
		case domain.StateError:
			if state != domain.StateSyncing {
				state = domain.StateError
			}
		case domain.StateHealthy:
			if state == domain.StateIdle {
				state = domain.StateHealthy
			}
		}
	}

	return &StatusSummary{
		LastSync:      lastSync,
		State:         state,
		RecordsSynced: synced,
		Errors:        recentErrors,
	}, nil
}
