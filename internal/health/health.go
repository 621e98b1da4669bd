package health

import (
	"context"
	"time"

	"bloodbank/internal/domain"
)

// Pinger checks reachability of one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to the Pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status values for the aggregate report and its individual checks.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	checkUp   = "up"
	checkDown = "down"
)

// Check is the outcome of probing a single dependency.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the aggregate health view. Failing reports the name of the
// single failing dependency when the service is degraded.
type Report struct {
	Status    string                  `json:"status"`
	Failing   string                  `json:"failing,omitempty"`
	Checks    []Check                 `json:"checks"`
	SyncTypes []domain.SyncTypeStatus `json:"sync_types,omitempty"`
	CheckedAt time.Time               `json:"checked_at"`
}

// Aggregator probes the database and the registry with a bounded timeout
// and folds in the latest per-type sync states. It never mutates state.
type Aggregator struct {
	db       Pinger
	registry Pinger
	statuses domain.SyncStatusRepository
	timeout  time.Duration
	now      func() time.Time
}

// New constructs an Aggregator. A non-positive timeout defaults to 5s.
func New(db, registry Pinger, statuses domain.SyncStatusRepository, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		db:       db,
		registry: registry,
		statuses: statuses,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Report probes both dependencies and aggregates the result. One failing
// dependency degrades the service; both failing makes it unhealthy.
func (a *Aggregator) Report(ctx context.Context) *Report {
	dbCheck := a.probe(ctx, "database", a.db)
	registryCheck := a.probe(ctx, "registry", a.registry)

	rep := &Report{
		Checks:    []Check{dbCheck, registryCheck},
		CheckedAt: a.now().UTC(),
	}

	switch {
	case dbCheck.Status == checkUp && registryCheck.Status == checkUp:
		rep.Status = StatusHealthy
	case dbCheck.Status == checkDown && registryCheck.Status == checkDown:
		rep.Status = StatusUnhealthy
	case dbCheck.Status == checkDown:
		rep.Status = StatusDegraded
		rep.Failing = dbCheck.Name
	default:
		rep.Status = StatusDegraded
		rep.Failing = registryCheck.Name
	}

	// Sync states are informational; a listing failure does not change
	// the aggregate status because the DB probe already covers the DB.
	if a.statuses != nil {
		if rows, err := a.statuses.List(ctx); err == nil {
			rep.SyncTypes = rows
		}
	}

	return rep
}

// DBReady reports whether the database alone answers a ping. The readiness
// endpoint uses this without consulting the registry.
func (a *Aggregator) DBReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.db.Ping(ctx)
}

func (a *Aggregator) probe(ctx context.Context, name string, p Pinger) Check {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return Check{Name: name, Status: checkDown, Detail: err.Error()}
	}
	return Check{Name: name, Status: checkUp}
}
