package domain

import "time"

// Collected volume bounds in millilitres.
const (
	DonationMinVolume = 300.0
	DonationMaxVolume = 500.0
)

// Donation is a single blood collection event from a registered donor.
type Donation struct {
	ID              string
	DonorID         string
	DonationDate    time.Time
	BloodType       BloodType
	VolumeCollected float64
	CollectionSite  string
	StaffID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
