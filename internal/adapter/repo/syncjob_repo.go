package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// SyncJobRepositoryPG implements SyncJobRepository using PostgreSQL. Job
// rows live in the sync_logs table and are never mutated after completion.
type SyncJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSyncJobRepository creates a new sync job repo.
func NewSyncJobRepository(pool *pgxpool.Pool) *SyncJobRepositoryPG {
	return &SyncJobRepositoryPG{pool: pool}
}

// Create inserts a newly started job.
func (r *SyncJobRepositoryPG) Create(ctx context.Context, job *domain.SyncJob) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO sync_logs (id, sync_type, status, records_processed, records_success, records_failed, error_message, dhis2_response, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`, job.ID, job.Type, job.Status, job.RecordsProcessed, job.RecordsSuccess, job.RecordsFailed,
		job.ErrorMessage, job.RemoteResponse, job.StartedAt)
	return err
}

// Get returns the job with the given id.
func (r *SyncJobRepositoryPG) Get(ctx context.Context, id string) (*domain.SyncJob, error) {
	var j domain.SyncJob
	err := r.pool.QueryRow(ctx, `
SELECT id, sync_type, status, records_processed, records_success, records_failed, error_message, dhis2_response, started_at, completed_at
FROM sync_logs
WHERE id = $1;
`, id).Scan(&j.ID, &j.Type, &j.Status, &j.RecordsProcessed, &j.RecordsSuccess, &j.RecordsFailed,
		&j.ErrorMessage, &j.RemoteResponse, &j.StartedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Complete moves a started job to its terminal status and records counters.
func (r *SyncJobRepositoryPG) Complete(ctx context.Context, id string, status domain.JobStatus, processed, success, failed int, errMsg, remoteResponse string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE sync_logs
SET status = $2,
    records_processed = $3,
    records_success = $4,
    records_failed = $5,
    error_message = $6,
    dhis2_response = $7,
    completed_at = now()
WHERE id = $1 AND status = 'STARTED';
`, id, status, processed, success, failed, errMsg, remoteResponse)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LastSuccessAt returns the completion time of the most recent successful
// job, or nil when none has succeeded yet.
func (r *SyncJobRepositoryPG) LastSuccessAt(ctx context.Context) (*time.Time, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx, `
SELECT max(completed_at)
FROM sync_logs
WHERE status = 'SUCCESS';
`).Scan(&at)
	if err != nil {
		return nil, err
	}
	return at, nil
}

// RecordsSyncedSince sums records_success over jobs completed since the
// given time.
func (r *SyncJobRepositoryPG) RecordsSyncedSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
SELECT coalesce(sum(records_success), 0)
FROM sync_logs
WHERE completed_at >= $1;
`, since).Scan(&total)
	return total, err
}

// RecentErrors returns messages from failed jobs completed since the given
// time, newest first.
func (r *SyncJobRepositoryPG) RecentErrors(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT error_message
FROM sync_logs
WHERE status = 'FAILED' AND completed_at >= $1 AND error_message <> ''
ORDER BY completed_at DESC
LIMIT $2;
`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}
