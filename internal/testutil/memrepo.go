// Package testutil provides in-memory repository implementations shared by
// handler and router tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"bloodbank/internal/domain"
)

// MemDonors is an in-memory DonorRepository.
type MemDonors struct {
	mu sync.Mutex
	M  map[string]domain.Donor
}

func NewMemDonors() *MemDonors { return &MemDonors{M: map[string]domain.Donor{}} }

func (f *MemDonors) Get(_ context.Context, id string) (*domain.Donor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.M[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (f *MemDonors) Create(_ context.Context, d *domain.Donor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[d.ID] = *d
	return nil
}

func (f *MemDonors) List(context.Context) ([]domain.Donor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Donor, 0, len(f.M))
	for _, d := range f.M {
		out = append(out, d)
	}
	return out, nil
}

// MemDonations is an in-memory DonationRepository.
type MemDonations struct {
	mu sync.Mutex
	M  map[string]domain.Donation
}

func NewMemDonations() *MemDonations { return &MemDonations{M: map[string]domain.Donation{}} }

func (f *MemDonations) Get(_ context.Context, id string) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.M[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (f *MemDonations) Create(_ context.Context, d *domain.Donation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[d.ID] = *d
	return nil
}

func (f *MemDonations) ExistsForDonorOn(_ context.Context, donorID string, day time.Time, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.M {
		if d.DonorID == donorID && d.ID != excludeID && sameDay(d.DonationDate, day) {
			return true, nil
		}
	}
	return false, nil
}

func (f *MemDonations) ListSince(_ context.Context, cutoff time.Time) ([]domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Donation
	for _, d := range f.M {
		if !d.DonationDate.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// MemProducts is an in-memory ProductRepository. MetricsResult, when set,
// is returned verbatim by Metrics.
type MemProducts struct {
	mu            sync.Mutex
	M             map[string]domain.BloodProduct
	MetricsResult *domain.InventoryMetrics
}

func NewMemProducts() *MemProducts { return &MemProducts{M: map[string]domain.BloodProduct{}} }

func (f *MemProducts) Get(_ context.Context, id string) (*domain.BloodProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.M[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *MemProducts) Create(_ context.Context, p *domain.BloodProduct) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[p.ID] = *p
	return nil
}

func (f *MemProducts) UpdateStatus(_ context.Context, id string, status domain.ProductStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.M[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	f.M[id] = p
	return nil
}

func (f *MemProducts) ListInventory(context.Context) ([]domain.BloodProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BloodProduct
	for _, p := range f.M {
		if p.Status == domain.ProductAvailable || p.Status == domain.ProductReserved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *MemProducts) Metrics(context.Context) (*domain.InventoryMetrics, error) {
	if f.MetricsResult != nil {
		return f.MetricsResult, nil
	}
	return &domain.InventoryMetrics{ByBloodType: map[domain.BloodType]int{}}, nil
}

// MemScreenings is an in-memory ScreeningRepository.
type MemScreenings struct {
	mu sync.Mutex
	M  map[string]domain.ScreeningResult
}

func NewMemScreenings() *MemScreenings {
	return &MemScreenings{M: map[string]domain.ScreeningResult{}}
}

func (f *MemScreenings) Create(_ context.Context, r *domain.ScreeningResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[r.ID] = *r
	return nil
}

// MemMovements is an in-memory MovementRepository.
type MemMovements struct {
	mu sync.Mutex
	M  map[string]domain.StockMovement
}

func NewMemMovements() *MemMovements {
	return &MemMovements{M: map[string]domain.StockMovement{}}
}

func (f *MemMovements) Get(_ context.Context, id string) (*domain.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.M[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (f *MemMovements) Create(_ context.Context, m *domain.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[m.ID] = *m
	return nil
}

// MemJobs is an in-memory SyncJobRepository.
type MemJobs struct {
	mu sync.Mutex
	M  map[string]domain.SyncJob
}

func NewMemJobs() *MemJobs { return &MemJobs{M: map[string]domain.SyncJob{}} }

func (f *MemJobs) Create(_ context.Context, job *domain.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.M[job.ID] = *job
	return nil
}

func (f *MemJobs) Get(_ context.Context, id string) (*domain.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.M[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

func (f *MemJobs) Complete(_ context.Context, id string, status domain.JobStatus, processed, success, failed int, errMsg, remoteResponse string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.M[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	j.Status = status
	j.RecordsProcessed = processed
	j.RecordsSuccess = success
	j.RecordsFailed = failed
	j.ErrorMessage = errMsg
	j.RemoteResponse = remoteResponse
	j.CompletedAt = &now
	f.M[id] = j
	return nil
}

func (f *MemJobs) LastSuccessAt(context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *time.Time
	for _, j := range f.M {
		if j.Status == domain.JobSuccess && j.CompletedAt != nil {
			if last == nil || j.CompletedAt.After(*last) {
				t := *j.CompletedAt
				last = &t
			}
		}
	}
	return last, nil
}

func (f *MemJobs) RecordsSyncedSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, j := range f.M {
		if j.CompletedAt != nil && !j.CompletedAt.Before(since) {
			total += j.RecordsSuccess
		}
	}
	return total, nil
}

func (f *MemJobs) RecentErrors(_ context.Context, since time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var msgs []string
	for _, j := range f.M {
		if j.Status == domain.JobFailed && j.CompletedAt != nil && !j.CompletedAt.Before(since) && j.ErrorMessage != "" {
			msgs = append(msgs, j.ErrorMessage)
		}
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// MemStatus is an in-memory SyncStatusRepository with compare-and-swap
// acquisition semantics.
type MemStatus struct {
	mu sync.Mutex
	M  map[domain.SyncType]*domain.SyncTypeStatus
}

func NewMemStatus() *MemStatus {
	return &MemStatus{M: map[domain.SyncType]*domain.SyncTypeStatus{}}
}

func (f *MemStatus) TryAcquire(_ context.Context, t domain.SyncType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.M[t]
	if !ok {
		row = &domain.SyncTypeStatus{Type: t, State: domain.StateIdle}
		f.M[t] = row
	}
	if row.State == domain.StateSyncing {
		return domain.ErrSyncInProgress
	}
	row.State = domain.StateSyncing
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *MemStatus) Release(_ context.Context, t domain.SyncType, outcome domain.TypeState, synced int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.M[t]
	if !ok {
		return domain.ErrNotFound
	}
	row.State = outcome
	row.TotalSynced += synced
	now := time.Now().UTC()
	if outcome == domain.StateHealthy {
		row.LastSyncAt = &now
	}
	row.UpdatedAt = now
	return nil
}

func (f *MemStatus) List(context.Context) ([]domain.SyncTypeStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SyncTypeStatus, 0, len(f.M))
	for _, row := range f.M {
		out = append(out, *row)
	}
	return out, nil
}
