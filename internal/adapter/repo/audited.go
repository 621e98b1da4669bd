package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"bloodbank/internal/domain"
)

// Auditor wraps domain write repositories with audit records. Audit
// failures never fail the write itself; they are logged and dropped.
type Auditor struct {
	audits domain.AuditRepository
	actor  string
	log    zerolog.Logger
}

// NewAuditor creates an Auditor attributing entries to the given actor.
func NewAuditor(audits domain.AuditRepository, actor string, log zerolog.Logger) *Auditor {
	return &Auditor{audits: audits, actor: actor, log: log}
}

func (a *Auditor) record(ctx context.Context, table string, op domain.AuditOp, recordID string, before, after any) {
	entry := &domain.AuditEntry{
		TableName: table,
		Operation: op,
		RecordID:  recordID,
		Actor:     a.actor,
	}
	if before != nil {
		entry.Before, _ = json.Marshal(before)
	}
	if after != nil {
		entry.After, _ = json.Marshal(after)
	}
	if err := a.audits.Record(ctx, entry); err != nil {
		a.log.Error().Err(err).
			Str("table", table).
			Str("record_id", recordID).
			Msg("audit record failed")
	}
}

// Donors decorates a DonorRepository. Reads pass through untouched.
func (a *Auditor) Donors(inner domain.DonorRepository) *AuditedDonorRepository {
	return &AuditedDonorRepository{DonorRepository: inner, a: a}
}

// Donations decorates a DonationRepository.
func (a *Auditor) Donations(inner domain.DonationRepository) *AuditedDonationRepository {
	return &AuditedDonationRepository{DonationRepository: inner, a: a}
}

// Products decorates a ProductRepository.
func (a *Auditor) Products(inner domain.ProductRepository) *AuditedProductRepository {
	return &AuditedProductRepository{ProductRepository: inner, a: a}
}

// Screenings decorates a ScreeningRepository.
func (a *Auditor) Screenings(inner domain.ScreeningRepository) *AuditedScreeningRepository {
	return &AuditedScreeningRepository{ScreeningRepository: inner, a: a}
}

// Movements decorates a MovementRepository.
func (a *Auditor) Movements(inner domain.MovementRepository) *AuditedMovementRepository {
	return &AuditedMovementRepository{MovementRepository: inner, a: a}
}

// AuditedDonorRepository records an audit entry for every donor write.
type AuditedDonorRepository struct {
	domain.DonorRepository
	a *Auditor
}

// AuditedDonationRepository records an audit entry for every donation write.
type AuditedDonationRepository struct {
	domain.DonationRepository
	a *Auditor
}

// AuditedProductRepository records an audit entry for every product write.
type AuditedProductRepository struct {
	domain.ProductRepository
	a *Auditor
}

// AuditedScreeningRepository records an audit entry for every screening write.
type AuditedScreeningRepository struct {
	domain.ScreeningRepository
	a *Auditor
}

// AuditedMovementRepository records an audit entry for every movement write.
type AuditedMovementRepository struct {
	domain.MovementRepository
	a *Auditor
}

// Create inserts the donor and records an INSERT audit entry.
func (r *AuditedDonorRepository) Create(ctx context.Context, donor *domain.Donor) error {
	if err := r.DonorRepository.Create(ctx, donor); err != nil {
		return err
	}
	r.a.record(ctx, "donors", domain.AuditInsert, donor.ID, nil, donor)
	return nil
}

// Create inserts the donation and records an INSERT audit entry.
func (r *AuditedDonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	if err := r.DonationRepository.Create(ctx, donation); err != nil {
		return err
	}
	r.a.record(ctx, "donations", domain.AuditInsert, donation.ID, nil, donation)
	return nil
}

// Create inserts the product and records an INSERT audit entry.
func (r *AuditedProductRepository) Create(ctx context.Context, product *domain.BloodProduct) error {
	if err := r.ProductRepository.Create(ctx, product); err != nil {
		return err
	}
	r.a.record(ctx, "blood_products", domain.AuditInsert, product.ID, nil, product)
	return nil
}

// UpdateStatus transitions the product and records an UPDATE audit entry
// with before and after snapshots.
func (r *AuditedProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus) error {
	before, err := r.ProductRepository.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.ProductRepository.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	after := *before
	after.Status = status
	after.UpdatedAt = time.Now().UTC()
	r.a.record(ctx, "blood_products", domain.AuditUpdate, id, before, &after)
	return nil
}

// Create inserts the screening result and records an INSERT audit entry.
func (r *AuditedScreeningRepository) Create(ctx context.Context, result *domain.ScreeningResult) error {
	if err := r.ScreeningRepository.Create(ctx, result); err != nil {
		return err
	}
	r.a.record(ctx, "screening_results", domain.AuditInsert, result.ID, nil, result)
	return nil
}

// Create inserts the stock movement and records an INSERT audit entry.
func (r *AuditedMovementRepository) Create(ctx context.Context, movement *domain.StockMovement) error {
	if err := r.MovementRepository.Create(ctx, movement); err != nil {
		return err
	}
	r.a.record(ctx, "stock_movements", domain.AuditInsert, movement.ID, nil, movement)
	return nil
}
