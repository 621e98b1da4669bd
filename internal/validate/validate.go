// Package validate holds the pure per-record domain checks applied before
// any write. Each function returns nil for an acceptable record or an error
// describing the first violated constraint.
package validate

import (
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/domain"
)

// Donor checks demographic constraints.
func Donor(d *domain.Donor) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("donor id is required")
	}
	if d.Age < domain.DonorMinAge || d.Age > domain.DonorMaxAge {
		return fmt.Errorf("age %d outside allowed range %d-%d", d.Age, domain.DonorMinAge, domain.DonorMaxAge)
	}
	if !d.Gender.Valid() {
		return fmt.Errorf("unknown gender %q", d.Gender)
	}
	return nil
}

// Donation checks a donation record against collection constraints. The
// referential donor check lives in the importer, not here.
func Donation(d *domain.Donation, now time.Time) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("donation id is required")
	}
	if strings.TrimSpace(d.DonorID) == "" {
		return fmt.Errorf("donor id is required")
	}
	if d.DonationDate.IsZero() {
		return fmt.Errorf("donation date is required")
	}
	if d.DonationDate.After(now) {
		return fmt.Errorf("donation date %s is in the future", d.DonationDate.Format(time.RFC3339))
	}
	if d.DonationDate.Before(now.AddDate(-1, 0, 0)) {
		return fmt.Errorf("donation date %s is older than one year", d.DonationDate.Format(time.RFC3339))
	}
	if !d.BloodType.Valid() {
		return fmt.Errorf("unknown blood type %q", d.BloodType)
	}
	if d.VolumeCollected < domain.DonationMinVolume || d.VolumeCollected > domain.DonationMaxVolume {
		return fmt.Errorf("volume %.0fml outside allowed range %.0f-%.0fml", d.VolumeCollected, domain.DonationMinVolume, domain.DonationMaxVolume)
	}
	if strings.TrimSpace(d.CollectionSite) == "" {
		return fmt.Errorf("collection site is required")
	}
	if strings.TrimSpace(d.StaffID) == "" {
		return fmt.Errorf("staff id is required")
	}
	return nil
}

// Product checks a blood product against its source donation.
func Product(p *domain.BloodProduct, source *domain.Donation) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(p.DonationID) == "" {
		return fmt.Errorf("donation id is required")
	}
	if !p.BloodType.Valid() {
		return fmt.Errorf("unknown blood type %q", p.BloodType)
	}
	if strings.TrimSpace(p.ProductType) == "" {
		return fmt.Errorf("product type is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if p.Volume <= 0 {
		return fmt.Errorf("volume must be positive")
	}
	if !p.ExpiryDate.After(p.CollectionDate) {
		return fmt.Errorf("expiry date must be after collection date")
	}
	if strings.TrimSpace(p.Location) == "" {
		return fmt.Errorf("storage location is required")
	}
	if source != nil {
		if p.BloodType != source.BloodType {
			return fmt.Errorf("blood type %s does not match source donation %s", p.BloodType, source.BloodType)
		}
		if p.Volume > source.VolumeCollected {
			return fmt.Errorf("volume %.0fml exceeds source donation volume %.0fml", p.Volume, source.VolumeCollected)
		}
	}
	return productTemperature(p)
}

// productTemperature enforces storage bands per product type. Whole blood
// and red cells keep 2-6°C; plasma stays at or below -18°C.
func productTemperature(p *domain.BloodProduct) error {
	if p.Temperature == nil {
		return nil
	}
	temp := *p.Temperature
	switch strings.ToLower(p.ProductType) {
	case "whole blood", "red blood cells":
		if temp < 2 || temp > 6 {
			return fmt.Errorf("temperature %.1f°C outside 2-6°C band for %s", temp, p.ProductType)
		}
	case "plasma":
		if temp > -18 {
			return fmt.Errorf("plasma must be stored at or below -18°C, got %.1f°C", temp)
		}
	}
	return nil
}

// Screening checks a screening result record.
func Screening(s *domain.ScreeningResult) error {
	if strings.TrimSpace(s.DonorID) == "" {
		return fmt.Errorf("donor id is required")
	}
	if !s.BloodType.Valid() {
		return fmt.Errorf("unknown blood type %q", s.BloodType)
	}
	if s.Hemoglobin < domain.HemoglobinMin || s.Hemoglobin > domain.HemoglobinMax {
		return fmt.Errorf("hemoglobin %.1f g/dL outside allowed range %.1f-%.1f", s.Hemoglobin, domain.HemoglobinMin, domain.HemoglobinMax)
	}
	if s.ScreeningDate.IsZero() {
		return fmt.Errorf("screening date is required")
	}
	return nil
}

// Movement checks a stock movement record.
func Movement(m *domain.StockMovement) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("movement id is required")
	}
	if strings.TrimSpace(m.ProductID) == "" {
		return fmt.Errorf("product id is required")
	}
	if !m.MovementType.Valid() {
		return fmt.Errorf("unknown movement type %q", m.MovementType)
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if strings.TrimSpace(m.Reason) == "" {
		return fmt.Errorf("reason is required")
	}
	if strings.TrimSpace(m.StaffID) == "" {
		return fmt.Errorf("staff id is required")
	}
	return nil
}
