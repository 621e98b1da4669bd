package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
)

// ProductRepositoryPG implements ProductRepository using PostgreSQL.
type ProductRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new blood product repo.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepositoryPG {
	return &ProductRepositoryPG{pool: pool}
}

// Get returns the blood product with the given id.
func (r *ProductRepositoryPG) Get(ctx context.Context, id string) (*domain.BloodProduct, error) {
	var p domain.BloodProduct
	err := r.pool.QueryRow(ctx, `
SELECT id, donation_id, blood_type, product_type, volume, collection_date, expiry_date, status, location, temperature, created_at, updated_at
FROM blood_products
WHERE id = $1;
`, id).Scan(&p.ID, &p.DonationID, &p.BloodType, &p.ProductType, &p.Volume,
		&p.CollectionDate, &p.ExpiryDate, &p.Status, &p.Location, &p.Temperature,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new blood product record.
func (r *ProductRepositoryPG) Create(ctx context.Context, product *domain.BloodProduct) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO blood_products (id, donation_id, blood_type, product_type, volume, collection_date, expiry_date, status, location, temperature)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`, product.ID, product.DonationID, product.BloodType, product.ProductType, product.Volume,
		product.CollectionDate, product.ExpiryDate, product.Status, product.Location, product.Temperature)
	return err
}

// UpdateStatus moves a product to a new legal status.
func (r *ProductRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE blood_products
SET status = $2, updated_at = now()
WHERE id = $1;
`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListInventory returns the current AVAILABLE and RESERVED units.
func (r *ProductRepositoryPG) ListInventory(ctx context.Context) ([]domain.BloodProduct, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, donation_id, blood_type, product_type, volume, collection_date, expiry_date, status, location, temperature, created_at, updated_at
FROM blood_products
WHERE status IN ('AVAILABLE', 'RESERVED')
ORDER BY id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BloodProduct
	for rows.Next() {
		var p domain.BloodProduct
		if err := rows.Scan(&p.ID, &p.DonationID, &p.BloodType, &p.ProductType, &p.Volume,
			&p.CollectionDate, &p.ExpiryDate, &p.Status, &p.Location, &p.Temperature,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Metrics aggregates domain counts for the metrics endpoint.
func (r *ProductRepositoryPG) Metrics(ctx context.Context) (*domain.InventoryMetrics, error) {
	m := &domain.InventoryMetrics{ByBloodType: make(map[domain.BloodType]int)}

	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM donations),
	count(*),
	count(*) FILTER (WHERE status = 'AVAILABLE'),
	count(*) FILTER (WHERE status = 'EXPIRED')
FROM blood_products;
`).Scan(&m.TotalDonations, &m.TotalProducts, &m.AvailableProducts, &m.ExpiredProducts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT blood_type, count(*)
FROM blood_products
WHERE status = 'AVAILABLE'
GROUP BY blood_type;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bt domain.BloodType
		var n int
		if err := rows.Scan(&bt, &n); err != nil {
			return nil, err
		}
		m.ByBloodType[bt] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
