package domain

import "time"

// AuditOp enumerates audited write operations.
type AuditOp string

const (
	AuditInsert AuditOp = "INSERT"
	AuditUpdate AuditOp = "UPDATE"
	AuditDelete AuditOp = "DELETE"
)

// AuditEntry is an immutable record of one write to a domain table. Before
// and After carry JSON snapshots of the row; Before is empty for inserts,
// After is empty for deletes. Entries are only ever removed by the
// retention sweep.
type AuditEntry struct {
	ID        int64
	TableName string
	Operation AuditOp
	RecordID  string
	Before    []byte
	After     []byte
	Actor     string
	CreatedAt time.Time
}
