package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

type memAudits struct {
	entries []domain.AuditEntry
	err     error
}

func (m *memAudits) Record(_ context.Context, entry *domain.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = int64(len(m.entries) + 1)
	entry.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAudits) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type memProducts struct {
	products  map[string]domain.BloodProduct
	createErr error
}

func (m *memProducts) Get(_ context.Context, id string) (*domain.BloodProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) Create(_ context.Context, p *domain.BloodProduct) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memProducts) UpdateStatus(_ context.Context, id string, status domain.ProductStatus) error {
	p, ok := m.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	m.products[id] = p
	return nil
}

func (m *memProducts) ListInventory(context.Context) ([]domain.BloodProduct, error) { return nil, nil }
func (m *memProducts) Metrics(context.Context) (*domain.InventoryMetrics, error)   { return nil, nil }

func TestAuditedCreateRecordsInsert(t *testing.T) {
	t.Parallel()

	audits := &memAudits{}
	inner := &memProducts{products: map[string]domain.BloodProduct{}}
	products := NewAuditor(audits, "api", zerolog.Nop()).Products(inner)

	p := &domain.BloodProduct{ID: "BP001", DonationID: "DON001", BloodType: domain.BloodTypeAPos, Status: domain.ProductAvailable}
	require.NoError(t, products.Create(context.Background(), p))

	require.Len(t, audits.entries, 1)
	entry := audits.entries[0]
	assert.Equal(t, "blood_products", entry.TableName)
	assert.Equal(t, domain.AuditInsert, entry.Operation)
	assert.Equal(t, "BP001", entry.RecordID)
	assert.Equal(t, "api", entry.Actor)
	assert.Empty(t, entry.Before)

	var after domain.BloodProduct
	require.NoError(t, json.Unmarshal(entry.After, &after))
	assert.Equal(t, "BP001", after.ID)
}

func TestAuditedUpdateStatusRecordsBeforeAndAfter(t *testing.T) {
	t.Parallel()

	audits := &memAudits{}
	inner := &memProducts{products: map[string]domain.BloodProduct{
		"BP001": {ID: "BP001", Status: domain.ProductAvailable},
	}}
	products := NewAuditor(audits, "api", zerolog.Nop()).Products(inner)

	require.NoError(t, products.UpdateStatus(context.Background(), "BP001", domain.ProductReserved))

	require.Len(t, audits.entries, 1)
	entry := audits.entries[0]
	assert.Equal(t, domain.AuditUpdate, entry.Operation)

	var before, after domain.BloodProduct
	require.NoError(t, json.Unmarshal(entry.Before, &before))
	require.NoError(t, json.Unmarshal(entry.After, &after))
	assert.Equal(t, domain.ProductAvailable, before.Status)
	assert.Equal(t, domain.ProductReserved, after.Status)
	assert.Equal(t, domain.ProductReserved, inner.products["BP001"].Status)
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	audits := &memAudits{err: errors.New("audit log unavailable")}
	inner := &memProducts{products: map[string]domain.BloodProduct{}}
	products := NewAuditor(audits, "api", zerolog.Nop()).Products(inner)

	p := &domain.BloodProduct{ID: "BP002", Status: domain.ProductAvailable}
	require.NoError(t, products.Create(context.Background(), p))
	assert.Contains(t, inner.products, "BP002")
}

func TestWriteFailureSkipsAudit(t *testing.T) {
	t.Parallel()

	audits := &memAudits{}
	inner := &memProducts{products: map[string]domain.BloodProduct{}, createErr: errors.New("insert failed")}
	products := NewAuditor(audits, "api", zerolog.Nop()).Products(inner)

	require.Error(t, products.Create(context.Background(), &domain.BloodProduct{ID: "BP003"}))
	assert.Empty(t, audits.entries)
}
