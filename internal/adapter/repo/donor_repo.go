package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// DonorRepositoryPG implements DonorRepository using PostgreSQL.
type DonorRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonorRepository creates a new donor repo.
func NewDonorRepository(pool *pgxpool.Pool) *DonorRepositoryPG {
	return &DonorRepositoryPG{pool: pool}
}

// Get returns the donor with the given id.
func (r *DonorRepositoryPG) Get(ctx context.Context, id string) (*domain.Donor, error) {
	var d domain.Donor
	err := r.pool.QueryRow(ctx, `
SELECT id, age, gender, occupation, location, contact, created_at, updated_at
FROM donors
WHERE id = $1;
`, id).Scan(&d.ID, &d.Age, &d.Gender, &d.Occupation, &d.Location, &d.Contact, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new donor record.
func (r *DonorRepositoryPG) Create(ctx context.Context, donor *domain.Donor) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO donors (id, age, gender, occupation, location, contact)
VALUES ($1, $2, $3, $4, $5, $6);
`, donor.ID, donor.Age, donor.Gender, donor.Occupation, donor.Location, donor.Contact)
	return err
}

// List returns all registered donors ordered by id.
func (r *DonorRepositoryPG) List(ctx context.Context) ([]domain.Donor, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, age, gender, occupation, location, contact, created_at, updated_at
FROM donors
ORDER BY id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donor
	for rows.Next() {
		var d domain.Donor
		if err := rows.Scan(&d.ID, &d.Age, &d.Gender, &d.Occupation, &d.Location, &d.Contact, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
