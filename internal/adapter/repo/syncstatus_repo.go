package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// SyncStatusRepositoryPG implements SyncStatusRepository using PostgreSQL.
// The per-type row doubles as the job lock; acquisition is a conditional
// upsert so that exactly one of any number of concurrent callers wins.
type SyncStatusRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSyncStatusRepository creates a new sync status repo.
func NewSyncStatusRepository(pool *pgxpool.Pool) *SyncStatusRepositoryPG {
	return &SyncStatusRepositoryPG{pool: pool}
}

// TryAcquire flips the type's row to syncing unless it already is.
func (r *SyncStatusRepositoryPG) TryAcquire(ctx context.Context, t domain.SyncType) error {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO sync_type_status (sync_type, state, total_synced, updated_at)
VALUES ($1, 'syncing', 0, now())
ON CONFLICT (sync_type) DO UPDATE
SET state = 'syncing', updated_at = now()
WHERE sync_type_status.state <> 'syncing';
`, t)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSyncInProgress
	}
	return nil
}

// Release records the outcome and frees the lock. The last sync time only
// advances on a healthy outcome.
func (r *SyncStatusRepositoryPG) Release(ctx context.Context, t domain.SyncType, outcome domain.TypeState, synced int) error {
	_, err := r.pool.Exec(ctx, `
UPDATE sync_type_status
SET state = $2,
    total_synced = total_synced + $3,
    last_sync_at = CASE WHEN $2 = 'healthy' THEN now() ELSE last_sync_at END,
    updated_at = now()
WHERE sync_type = $1;
`, t, outcome, synced)
	return err
}

// List returns every per-type status row.
func (r *SyncStatusRepositoryPG) List(ctx context.Context) ([]domain.SyncTypeStatus, error) {
	rows, err := r.pool.Query(ctx, `
SELECT sync_type, state, last_sync_at, total_synced, updated_at
FROM sync_type_status
ORDER BY sync_type;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SyncTypeStatus
	for rows.Next() {
		var s domain.SyncTypeStatus
		if err := rows.Scan(&s.Type, &s.State, &s.LastSyncAt, &s.TotalSynced, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
