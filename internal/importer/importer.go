// Package importer ingests batches of blood-bank records. Validation
// failures are per record and never abort the batch: every record either
// persists atomically or contributes one entry to the error list.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bloodbank/internal/domain"
	"bloodbank/internal/validate"
)

// Result reports the outcome of one import batch. Imported + Failed always
// equals the input length, and every failure has a matching error string.
type Result struct {
	Imported int      `json:"imported_count"`
	Failed   int      `json:"failed_count"`
	Errors   []string `json:"errors"`
}

func (r *Result) fail(msg string) {
	r.Failed++
	r.Errors = append(r.Errors, msg)
}

// Importer applies validation and persists batches of domain records.
type Importer struct {
	donors     domain.DonorRepository
	donations  domain.DonationRepository
	products   domain.ProductRepository
	screenings domain.ScreeningRepository
	movements  domain.MovementRepository
	log        zerolog.Logger
	now        func() time.Time
}

// New constructs an Importer over the given repositories.
func New(
	donors domain.DonorRepository,
	donations domain.DonationRepository,
	products domain.ProductRepository,
	screenings domain.ScreeningRepository,
	movements domain.MovementRepository,
	log zerolog.Logger,
) *Importer {
	return &Importer{
		donors:     donors,
		donations:  donations,
		products:   products,
		screenings: screenings,
		movements:  movements,
		log:        log,
		now:        time.Now,
	}
}

// ImportDonors imports donor demographic records. Re-importing an identical
// donor is a no-op counted as imported; a different payload for an existing
// id is rejected.
func (im *Importer) ImportDonors(ctx context.Context, donors []domain.Donor) Result {
	var res Result
	for i := range donors {
		donor := donors[i]
		if err := validate.Donor(&donor); err != nil {
			res.fail(fmt.Sprintf("Donor %s: %v", donor.ID, err))
			continue
		}
		existing, err := im.donors.Get(ctx, donor.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := im.donors.Create(ctx, &donor); err != nil {
				res.fail(fmt.Sprintf("Donor %s: %v", donor.ID, err))
				continue
			}
			res.Imported++
		case err != nil:
			res.fail(fmt.Sprintf("Donor %s: %v", donor.ID, err))
		case sameDonor(existing, &donor):
			res.Imported++
		default:
			res.fail(fmt.Sprintf("Donor %s: %v", donor.ID, domain.ErrConflict))
		}
	}
	im.log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("donors import completed")
	return res
}

// ImportDonations imports donation records. The referenced donor must
// already exist, and a donor may have at most one donation per calendar day.
func (im *Importer) ImportDonations(ctx context.Context, donations []domain.Donation) Result {
	var res Result
	now := im.now()
	for i := range donations {
		donation := donations[i]
		if err := validate.Donation(&donation, now); err != nil {
			res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, err))
			continue
		}
		if _, err := im.donors.Get(ctx, donation.DonorID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.fail(fmt.Sprintf("Donation %s: Donor %s not found", donation.ID, donation.DonorID))
			} else {
				res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, err))
			}
			continue
		}
		existing, err := im.donations.Get(ctx, donation.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			dup, err := im.donations.ExistsForDonorOn(ctx, donation.DonorID, donation.DonationDate, donation.ID)
			if err != nil {
				res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, err))
				continue
			}
			if dup {
				res.fail(fmt.Sprintf("Donation %s: duplicate donation for donor %s on %s",
					donation.ID, donation.DonorID, donation.DonationDate.Format("2006-01-02")))
				continue
			}
			if err := im.donations.Create(ctx, &donation); err != nil {
				res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, err))
				continue
			}
			res.Imported++
		case err != nil:
			res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, err))
		case sameDonation(existing, &donation):
			res.Imported++
		default:
			res.fail(fmt.Sprintf("Donation %s: %v", donation.ID, domain.ErrConflict))
		}
	}
	im.log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("donations import completed")
	return res
}

// ImportProducts imports blood product records. The source donation must
// exist and the product must be consistent with it. Re-importing an
// existing product whose payload differs only by a legal status transition
// updates the status; any other difference is rejected.
func (im *Importer) ImportProducts(ctx context.Context, products []domain.BloodProduct) Result {
	var res Result
	for i := range products {
		product := products[i]
		source, err := im.donations.Get(ctx, product.DonationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.fail(fmt.Sprintf("Product %s: Donation %s not found", product.ID, product.DonationID))
			} else {
				res.fail(fmt.Sprintf("Product %s: %v", product.ID, err))
			}
			continue
		}
		if err := validate.Product(&product, source); err != nil {
			res.fail(fmt.Sprintf("Product %s: %v", product.ID, err))
			continue
		}
		existing, err := im.products.Get(ctx, product.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := im.products.Create(ctx, &product); err != nil {
				res.fail(fmt.Sprintf("Product %s: %v", product.ID, err))
				continue
			}
			res.Imported++
		case err != nil:
			res.fail(fmt.Sprintf("Product %s: %v", product.ID, err))
		case sameProduct(existing, &product):
			res.Imported++
		case sameProductExceptStatus(existing, &product):
			if !existing.Status.CanTransitionTo(product.Status) {
				res.fail(fmt.Sprintf("Product %s: status transition %s -> %s not allowed",
					product.ID, existing.Status, product.Status))
				continue
			}
			if err := im.products.UpdateStatus(ctx, product.ID, product.Status); err != nil {
				res.fail(fmt.Sprintf("Product %s: %v", product.ID, err))
				continue
			}
			res.Imported++
		default:
			res.fail(fmt.Sprintf("Product %s: %v", product.ID, domain.ErrConflict))
		}
	}
	im.log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("blood products import completed")
	return res
}

// ImportScreeningResults imports screening records. Identifiers are
// assigned server-side.
func (im *Importer) ImportScreeningResults(ctx context.Context, results []domain.ScreeningResult) Result {
	var res Result
	for i := range results {
		result := results[i]
		if err := validate.Screening(&result); err != nil {
			res.fail(fmt.Sprintf("Screening result for donor %s: %v", result.DonorID, err))
			continue
		}
		if _, err := im.donors.Get(ctx, result.DonorID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.fail(fmt.Sprintf("Screening result for donor %s: Donor not found", result.DonorID))
			} else {
				res.fail(fmt.Sprintf("Screening result for donor %s: %v", result.DonorID, err))
			}
			continue
		}
		result.ID = uuid.NewString()
		if err := im.screenings.Create(ctx, &result); err != nil {
			res.fail(fmt.Sprintf("Screening result for donor %s: %v", result.DonorID, err))
			continue
		}
		res.Imported++
	}
	im.log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("screening results import completed")
	return res
}

// ImportMovements imports stock movement records. The referenced product
// must exist.
func (im *Importer) ImportMovements(ctx context.Context, movements []domain.StockMovement) Result {
	var res Result
	for i := range movements {
		movement := movements[i]
		if err := validate.Movement(&movement); err != nil {
			res.fail(fmt.Sprintf("Movement %s: %v", movement.ID, err))
			continue
		}
		if _, err := im.products.Get(ctx, movement.ProductID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.fail(fmt.Sprintf("Movement %s: Product %s not found", movement.ID, movement.ProductID))
			} else {
				res.fail(fmt.Sprintf("Movement %s: %v", movement.ID, err))
			}
			continue
		}
		existing, err := im.movements.Get(ctx, movement.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := im.movements.Create(ctx, &movement); err != nil {
				res.fail(fmt.Sprintf("Movement %s: %v", movement.ID, err))
				continue
			}
			res.Imported++
		case err != nil:
			res.fail(fmt.Sprintf("Movement %s: %v", movement.ID, err))
		case sameMovement(existing, &movement):
			res.Imported++
		default:
			res.fail(fmt.Sprintf("Movement %s: %v", movement.ID, domain.ErrConflict))
		}
	}
	im.log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("stock movements import completed")
	return res
}

func sameDonor(a, b *domain.Donor) bool {
	return a.Age == b.Age &&
		a.Gender == b.Gender &&
		a.Occupation == b.Occupation &&
		a.Location == b.Location &&
		a.Contact == b.Contact
}

func sameDonation(a, b *domain.Donation) bool {
	return a.DonorID == b.DonorID &&
		a.DonationDate.Equal(b.DonationDate) &&
		a.BloodType == b.BloodType &&
		a.VolumeCollected == b.VolumeCollected &&
		a.CollectionSite == b.CollectionSite &&
		a.StaffID == b.StaffID
}

func sameMovement(a, b *domain.StockMovement) bool {
	return a.ProductID == b.ProductID &&
		a.MovementType == b.MovementType &&
		a.Quantity == b.Quantity &&
		a.FromLocation == b.FromLocation &&
		a.ToLocation == b.ToLocation &&
		a.Reason == b.Reason &&
		a.StaffID == b.StaffID
}

func sameProduct(a, b *domain.BloodProduct) bool {
	return a.Status == b.Status && sameProductExceptStatus(a, b)
}

func sameProductExceptStatus(a, b *domain.BloodProduct) bool {
	return a.DonationID == b.DonationID &&
		a.BloodType == b.BloodType &&
		a.ProductType == b.ProductType &&
		a.Volume == b.Volume &&
		a.CollectionDate.Equal(b.CollectionDate) &&
		a.ExpiryDate.Equal(b.ExpiryDate) &&
		a.Location == b.Location &&
		sameTemperature(a.Temperature, b.Temperature)
}

func sameTemperature(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
