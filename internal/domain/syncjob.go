package domain

import "time"

// SyncType enumerates the independently locked export categories.
type SyncType string

const (
	SyncDonations SyncType = "DONATIONS"
	SyncInventory SyncType = "INVENTORY"
	SyncDonors    SyncType = "DONORS"
	SyncFull      SyncType = "FULL"
)

// SyncTypes lists every export category, in the order the full sync runs
// its sub-phases.
var SyncTypes = []SyncType{SyncDonations, SyncInventory, SyncDonors, SyncFull}

// Valid reports whether the value is a known sync type.
func (t SyncType) Valid() bool {
	switch t {
	case SyncDonations, SyncInventory, SyncDonors, SyncFull:
		return true
	}
	return false
}

// JobStatus enumerates sync job lifecycle states. SUCCESS and FAILED are
// terminal; a job row is never mutated after reaching either.
type JobStatus string

const (
	JobStarted JobStatus = "STARTED"
	JobSuccess JobStatus = "SUCCESS"
	JobFailed  JobStatus = "FAILED"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool { return s == JobSuccess || s == JobFailed }

// SyncJob is one export run against the registry.
type SyncJob struct {
	ID               string
	Type             SyncType
	Status           JobStatus
	RecordsProcessed int
	RecordsSuccess   int
	RecordsFailed    int
	ErrorMessage     string
	RemoteResponse   string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// TypeState enumerates the per-type status row values. The row behaves as a
// lock: only one job per type may hold "syncing". After completion the row
// rests at "healthy" or "error" until the next job starts.
type TypeState string

const (
	StateIdle    TypeState = "idle"
	StateSyncing TypeState = "syncing"
	StateHealthy TypeState = "healthy"
	StateError   TypeState = "error"
)

// SyncTypeStatus is the single lockable status row for one sync type.
type SyncTypeStatus struct {
	Type        SyncType
	State       TypeState
	LastSyncAt  *time.Time
	TotalSynced int
	UpdatedAt   time.Time
}
