package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// ScreeningRepositoryPG implements ScreeningRepository using PostgreSQL.
type ScreeningRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewScreeningRepository creates a new screening result repo.
func NewScreeningRepository(pool *pgxpool.Pool) *ScreeningRepositoryPG {
	return &ScreeningRepositoryPG{pool: pool}
}

// Create inserts a new screening result record.
func (r *ScreeningRepositoryPG) Create(ctx context.Context, result *domain.ScreeningResult) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO screening_results (id, donor_id, blood_type, hemoglobin, hiv_test, hepatitis_b_test, hepatitis_c_test, syphilis_test, screening_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`, result.ID, result.DonorID, result.BloodType, result.Hemoglobin,
		result.HIVTest, result.HepatitisBTest, result.HepatitisCTest, result.SyphilisTest,
		result.ScreeningDate)
	return err
}
