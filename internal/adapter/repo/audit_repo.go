package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// AuditRepositoryPG implements AuditRepository using PostgreSQL.
type AuditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit log repo.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepositoryPG {
	return &AuditRepositoryPG{pool: pool}
}

// Record appends an audit entry. Entries are append-only; the id is
// assigned by the database.
func (r *AuditRepositoryPG) Record(ctx context.Context, entry *domain.AuditEntry) error {
	return r.pool.QueryRow(ctx, `
INSERT INTO audit_log (table_name, operation, record_id, before, after, actor)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;
`, entry.TableName, entry.Operation, entry.RecordID, entry.Before, entry.After, entry.Actor).
		Scan(&entry.ID, &entry.CreatedAt)
}

// DeleteOlderThan removes entries created before the cutoff and returns
// how many were deleted.
func (r *AuditRepositoryPG) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM audit_log
WHERE created_at < $1;
`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
