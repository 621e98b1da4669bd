package domain

import (
	"context"
	"time"
)

// DonorRepository defines persistence for donors.
type DonorRepository interface {
	Get(ctx context.Context, id string) (*Donor, error)
	Create(ctx context.Context, donor *Donor) error
	List(ctx context.Context) ([]Donor, error)
}

// DonationRepository defines persistence for donations.
type DonationRepository interface {
	Get(ctx context.Context, id string) (*Donation, error)
	Create(ctx context.Context, donation *Donation) error
	// ExistsForDonorOn reports whether the donor already has a donation on
	// the given calendar day, excluding the donation with excludeID.
	ExistsForDonorOn(ctx context.Context, donorID string, day time.Time, excludeID string) (bool, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]Donation, error)
}

// ProductRepository defines persistence for blood products.
type ProductRepository interface {
	Get(ctx context.Context, id string) (*BloodProduct, error)
	Create(ctx context.Context, product *BloodProduct) error
	UpdateStatus(ctx context.Context, id string, status ProductStatus) error
	// ListInventory returns the current AVAILABLE and RESERVED units.
	ListInventory(ctx context.Context) ([]BloodProduct, error)
	Metrics(ctx context.Context) (*InventoryMetrics, error)
}

// ScreeningRepository defines persistence for screening results.
type ScreeningRepository interface {
	Create(ctx context.Context, result *ScreeningResult) error
}

// MovementRepository defines persistence for stock movements.
type MovementRepository interface {
	Get(ctx context.Context, id string) (*StockMovement, error)
	Create(ctx context.Context, movement *StockMovement) error
}

// SyncJobRepository defines persistence for sync jobs. Complete is the only
// mutation after creation and moves the job to a terminal status.
type SyncJobRepository interface {
	Create(ctx context.Context, job *SyncJob) error
	Get(ctx context.Context, id string) (*SyncJob, error)
	Complete(ctx context.Context, id string, status JobStatus, processed, success, failed int, errMsg, remoteResponse string) error
	LastSuccessAt(ctx context.Context) (*time.Time, error)
	// RecordsSyncedSince sums records_success over jobs completed since the
	// given time.
	RecordsSyncedSince(ctx context.Context, since time.Time) (int, error)
	RecentErrors(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// SyncStatusRepository owns the per-type status rows used as job locks.
// TryAcquire must be a compare-and-swap: exactly one of any number of
// concurrent callers for the same type may win.
type SyncStatusRepository interface {
	TryAcquire(ctx context.Context, t SyncType) error
	Release(ctx context.Context, t SyncType, outcome TypeState, synced int) error
	List(ctx context.Context) ([]SyncTypeStatus, error)
}

// AuditRepository appends audit entries and runs the retention sweep.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
