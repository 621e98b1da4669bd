package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// DonationRepositoryPG implements DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepositoryPG {
	return &DonationRepositoryPG{pool: pool}
}

// Get returns the donation with the given id.
func (r *DonationRepositoryPG) Get(ctx context.Context, id string) (*domain.Donation, error) {
	var d domain.Donation
	err := r.pool.QueryRow(ctx, `
SELECT id, donor_id, donation_date, blood_type, volume_collected, collection_site, staff_id, created_at, updated_at
FROM donations
WHERE id = $1;
`, id).Scan(&d.ID, &d.DonorID, &d.DonationDate, &d.BloodType, &d.VolumeCollected,
		&d.CollectionSite, &d.StaffID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, donation *domain.Donation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO donations (id, donor_id, donation_date, blood_type, volume_collected, collection_site, staff_id)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`, donation.ID, donation.DonorID, donation.DonationDate, donation.BloodType,
		donation.VolumeCollected, donation.CollectionSite, donation.StaffID)
	return err
}

// ExistsForDonorOn reports whether the donor already has a donation on the
// given calendar day, excluding the donation with excludeID.
func (r *DonationRepositoryPG) ExistsForDonorOn(ctx context.Context, donorID string, day time.Time, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM donations
	WHERE donor_id = $1
	  AND donation_date::date = $2::date
	  AND id <> $3
);
`, donorID, day, excludeID).Scan(&exists)
	return exists, err
}

// ListSince returns donations collected at or after the cutoff, oldest first.
func (r *DonationRepositoryPG) ListSince(ctx context.Context, cutoff time.Time) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, donor_id, donation_date, blood_type, volume_collected, collection_site, staff_id, created_at, updated_at
FROM donations
WHERE donation_date >= $1
ORDER BY donation_date, id;
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.DonorID, &d.DonationDate, &d.BloodType, &d.VolumeCollected,
			&d.CollectionSite, &d.StaffID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
