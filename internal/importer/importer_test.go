package importer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type memStore struct {
	donors     map[string]domain.Donor
	donations  map[string]domain.Donation
	products   map[string]domain.BloodProduct
	screenings map[string]domain.ScreeningResult
	movements  map[string]domain.StockMovement
}

func newMemStore() *memStore {
	return &memStore{
		donors:     map[string]domain.Donor{},
		donations:  map[string]domain.Donation{},
		products:   map[string]domain.BloodProduct{},
		screenings: map[string]domain.ScreeningResult{},
		movements:  map[string]domain.StockMovement{},
	}
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Donor, error) {
	if d, ok := s.donors[id]; ok {
		return &d, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) Create(_ context.Context, d *domain.Donor) error {
	s.donors[d.ID] = *d
	return nil
}

func (s *memStore) List(_ context.Context) ([]domain.Donor, error) {
	out := make([]domain.Donor, 0, len(s.donors))
	for _, d := range s.donors {
		out = append(out, d)
	}
	return out, nil
}

type memDonations struct{ s *memStore }

func (m memDonations) Get(_ context.Context, id string) (*domain.Donation, error) {
	if d, ok := m.s.donations[id]; ok {
		return &d, nil
	}
	return nil, domain.ErrNotFound
}

func (m memDonations) Create(_ context.Context, d *domain.Donation) error {
	m.s.donations[d.ID] = *d
	return nil
}

func (m memDonations) ExistsForDonorOn(_ context.Context, donorID string, day time.Time, excludeID string) (bool, error) {
	for _, d := range m.s.donations {
		if d.ID == excludeID || d.DonorID != donorID {
			continue
		}
		dy, dm, dd := d.DonationDate.Date()
		y, mo, da := day.Date()
		if dy == y && dm == mo && dd == da {
			return true, nil
		}
	}
	return false, nil
}

func (m memDonations) ListSince(_ context.Context, cutoff time.Time) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range m.s.donations {
		if !d.DonationDate.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

type memProducts struct{ s *memStore }

func (m memProducts) Get(_ context.Context, id string) (*domain.BloodProduct, error) {
	if p, ok := m.s.products[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrNotFound
}

func (m memProducts) Create(_ context.Context, p *domain.BloodProduct) error {
	m.s.products[p.ID] = *p
	return nil
}

func (m memProducts) UpdateStatus(_ context.Context, id string, status domain.ProductStatus) error {
	p, ok := m.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	m.s.products[id] = p
	return nil
}

func (m memProducts) ListInventory(_ context.Context) ([]domain.BloodProduct, error) {
	var out []domain.BloodProduct
	for _, p := range m.s.products {
		if p.Status == domain.ProductAvailable || p.Status == domain.ProductReserved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memProducts) Metrics(_ context.Context) (*domain.InventoryMetrics, error) {
	return &domain.InventoryMetrics{}, nil
}

type memScreenings struct{ s *memStore }

func (m memScreenings) Create(_ context.Context, r *domain.ScreeningResult) error {
	m.s.screenings[r.ID] = *r
	return nil
}

type memMovements struct{ s *memStore }

func (m memMovements) Get(_ context.Context, id string) (*domain.StockMovement, error) {
	if mv, ok := m.s.movements[id]; ok {
		return &mv, nil
	}
	return nil, domain.ErrNotFound
}

func (m memMovements) Create(_ context.Context, mv *domain.StockMovement) error {
	m.s.movements[mv.ID] = *mv
	return nil
}

func newTestImporter(s *memStore) *Importer {
	im := New(s, memDonations{s}, memProducts{s}, memScreenings{s}, memMovements{s}, zerolog.Nop())
	im.now = func() time.Time { return testNow }
	return im
}

func donor(id string, age int) domain.Donor {
	return domain.Donor{ID: id, Age: age, Gender: domain.GenderMale, Occupation: "teacher"}
}

func donation(id, donorID string) domain.Donation {
	return domain.Donation{
		ID:              id,
		DonorID:         donorID,
		DonationDate:    testNow.AddDate(0, 0, -2),
		BloodType:       domain.BloodTypeAPos,
		VolumeCollected: 450,
		CollectionSite:  "Central Clinic",
		StaffID:         "S01",
	}
}

func TestImportDonorsPartialFailure(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)

	batch := []domain.Donor{
		donor("D001", 30),
		donor("D002", 17),      // below minimum age
		donor("D003", 66),      // above maximum age
		{ID: "D004", Age: 40},  // missing gender
		donor("D005", 65),
	}
	res := im.ImportDonors(context.Background(), batch)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, len(batch), res.Imported+res.Failed)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "D002")
	assert.Contains(t, res.Errors[1], "D003")
	assert.Contains(t, res.Errors[2], "D004")
}

func TestImportDonorsIdempotent(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)
	ctx := context.Background()

	first := im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)})
	require.Equal(t, 1, first.Imported)

	// Identical payload: no-op, still counted as imported.
	again := im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)})
	assert.Equal(t, 1, again.Imported)
	assert.Len(t, s.donors, 1)

	// Conflicting payload for the same identity is rejected.
	changed := donor("D001", 31)
	conflict := im.ImportDonors(ctx, []domain.Donor{changed})
	assert.Equal(t, 1, conflict.Failed)
	require.Len(t, conflict.Errors, 1)
	assert.Contains(t, conflict.Errors[0], "conflicting payload")
	assert.Equal(t, 30, s.donors["D001"].Age)
}

func TestImportDonationMissingDonor(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)

	res := im.ImportDonations(context.Background(), []domain.Donation{donation("DON001", "D404")})

	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Donor D404 not found")
	assert.Empty(t, s.donations)
}

func TestImportDonationDuplicateDay(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)
	ctx := context.Background()

	require.Equal(t, 1, im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)}).Imported)
	require.Equal(t, 1, im.ImportDonations(ctx, []domain.Donation{donation("DON001", "D001")}).Imported)

	second := donation("DON002", "D001")
	res := im.ImportDonations(ctx, []domain.Donation{second})
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "duplicate donation")
}

func TestImportProductReferencesAndStatusTransition(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)
	ctx := context.Background()

	require.Equal(t, 1, im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)}).Imported)
	require.Equal(t, 1, im.ImportDonations(ctx, []domain.Donation{donation("DON001", "D001")}).Imported)

	product := domain.BloodProduct{
		ID:             "BP001",
		DonationID:     "DON001",
		BloodType:      domain.BloodTypeAPos,
		ProductType:    "Whole Blood",
		Volume:         450,
		CollectionDate: testNow.AddDate(0, 0, -2),
		ExpiryDate:     testNow.AddDate(0, 0, 33),
		Status:         domain.ProductAvailable,
		Location:       "Fridge 2",
	}

	res := im.ImportProducts(ctx, []domain.BloodProduct{product})
	require.Equal(t, 1, res.Imported)

	// Missing source donation fails with the donation named.
	orphan := product
	orphan.ID = "BP002"
	orphan.DonationID = "DON404"
	res = im.ImportProducts(ctx, []domain.BloodProduct{orphan})
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors[0], "Donation DON404 not found")

	// A legal status transition on re-import updates the row.
	reserved := product
	reserved.Status = domain.ProductReserved
	res = im.ImportProducts(ctx, []domain.BloodProduct{reserved})
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, domain.ProductReserved, s.products["BP001"].Status)

	// Terminal states never transition back.
	used := product
	used.Status = domain.ProductUsed
	require.Equal(t, 1, im.ImportProducts(ctx, []domain.BloodProduct{used}).Imported)

	revived := product
	revived.Status = domain.ProductAvailable
	res = im.ImportProducts(ctx, []domain.BloodProduct{revived})
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors[0], "transition USED -> AVAILABLE not allowed")
}

func TestImportScreeningResults(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)
	ctx := context.Background()

	require.Equal(t, 1, im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)}).Imported)

	batch := []domain.ScreeningResult{
		{DonorID: "D001", BloodType: domain.BloodTypeAPos, Hemoglobin: 13.5, HIVTest: true, HepatitisBTest: true, HepatitisCTest: true, SyphilisTest: true, ScreeningDate: testNow},
		{DonorID: "D404", BloodType: domain.BloodTypeAPos, Hemoglobin: 13.5, ScreeningDate: testNow},
		{DonorID: "D001", BloodType: domain.BloodTypeAPos, Hemoglobin: 25.0, ScreeningDate: testNow},
	}
	res := im.ImportScreeningResults(ctx, batch)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, s.screenings, 1)
	for id := range s.screenings {
		assert.NotEmpty(t, id, "screening id assigned server-side")
	}
}

func TestImportMovements(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	im := newTestImporter(s)
	ctx := context.Background()

	require.Equal(t, 1, im.ImportDonors(ctx, []domain.Donor{donor("D001", 30)}).Imported)
	require.Equal(t, 1, im.ImportDonations(ctx, []domain.Donation{donation("DON001", "D001")}).Imported)
	product := domain.BloodProduct{
		ID:             "BP001",
		DonationID:     "DON001",
		BloodType:      domain.BloodTypeAPos,
		ProductType:    "Plasma",
		Volume:         200,
		CollectionDate: testNow.AddDate(0, 0, -2),
		ExpiryDate:     testNow.AddDate(1, 0, 0),
		Status:         domain.ProductAvailable,
		Location:       "Freezer 1",
	}
	require.Equal(t, 1, im.ImportProducts(ctx, []domain.BloodProduct{product}).Imported)

	move := domain.StockMovement{
		ID:           "MV001",
		ProductID:    "BP001",
		MovementType: domain.MovementTransfer,
		Quantity:     1,
		FromLocation: "Freezer 1",
		ToLocation:   "Freezer 2",
		Reason:       "capacity",
		StaffID:      "S01",
	}
	res := im.ImportMovements(ctx, []domain.StockMovement{move})
	require.Equal(t, 1, res.Imported)

	// Identical re-import is a no-op; unknown product fails.
	orphanMove := move
	orphanMove.ID = "MV002"
	orphanMove.ProductID = "BP404"
	res = im.ImportMovements(ctx, []domain.StockMovement{move, orphanMove})
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors[0], "Product BP404 not found")
}
