package domain

import "time"

// ProductStatus enumerates blood product inventory states.
type ProductStatus string

const (
	ProductAvailable  ProductStatus = "AVAILABLE"
	ProductReserved   ProductStatus = "RESERVED"
	ProductExpired    ProductStatus = "EXPIRED"
	ProductUsed       ProductStatus = "USED"
	ProductQuarantine ProductStatus = "QUARANTINE"
)

// Valid reports whether the value is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductReserved, ProductExpired, ProductUsed, ProductQuarantine:
		return true
	}
	return false
}

// Terminal reports whether a product in this state can never change state
// again. EXPIRED, USED and QUARANTINE units leave circulation for good.
func (s ProductStatus) Terminal() bool {
	switch s {
	case ProductExpired, ProductUsed, ProductQuarantine:
		return true
	}
	return false
}

// CanTransitionTo reports whether the closed transition set permits moving a
// product from s to next. AVAILABLE may move anywhere, RESERVED may be
// released or consumed, terminal states never transition.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	switch s {
	case ProductAvailable:
		return true
	case ProductReserved:
		return next == ProductAvailable || next == ProductUsed || next == ProductExpired || next == ProductQuarantine
	}
	return false
}

// BloodProduct is a processed unit derived from a donation and tracked in
// inventory until it reaches a terminal state.
type BloodProduct struct {
	ID             string
	DonationID     string
	BloodType      BloodType
	ProductType    string
	Volume         float64
	CollectionDate time.Time
	ExpiryDate     time.Time
	Status         ProductStatus
	Location       string
	Temperature    *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InventoryMetrics aggregates product counts for the metrics endpoint.
type InventoryMetrics struct {
	TotalDonations    int
	TotalProducts     int
	AvailableProducts int
	ExpiredProducts   int
	ByBloodType       map[BloodType]int
}
