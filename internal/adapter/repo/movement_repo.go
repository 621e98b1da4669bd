package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// MovementRepositoryPG implements MovementRepository using PostgreSQL.
type MovementRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new stock movement repo.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepositoryPG {
	return &MovementRepositoryPG{pool: pool}
}

// Get returns the stock movement with the given id.
func (r *MovementRepositoryPG) Get(ctx context.Context, id string) (*domain.StockMovement, error) {
	var m domain.StockMovement
	err := r.pool.QueryRow(ctx, `
SELECT id, product_id, movement_type, quantity, movement_date, from_location, to_location, reason, staff_id, created_at
FROM stock_movements
WHERE id = $1;
`, id).Scan(&m.ID, &m.ProductID, &m.MovementType, &m.Quantity, &m.MovementDate,
		&m.FromLocation, &m.ToLocation, &m.Reason, &m.StaffID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new stock movement record.
func (r *MovementRepositoryPG) Create(ctx context.Context, movement *domain.StockMovement) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO stock_movements (id, product_id, movement_type, quantity, movement_date, from_location, to_location, reason, staff_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`, movement.ID, movement.ProductID, movement.MovementType, movement.Quantity, movement.MovementDate,
		movement.FromLocation, movement.ToLocation, movement.Reason, movement.StaffID)
	return err
}
