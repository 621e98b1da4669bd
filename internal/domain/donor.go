package domain

import "time"

// Donor age limits for whole-blood donation.
const (
	DonorMinAge = 18
	DonorMaxAge = 65
)

// Donor holds demographic data for a registered blood donor. The identifier
// comes from the upstream collection system, not from this service.
type Donor struct {
	ID         string
	Age        int
	Gender     Gender
	Occupation string
	Location   string
	Contact    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
