package domain

import "time"

// Hemoglobin bounds in g/dL for an acceptable screening.
const (
	HemoglobinMin = 12.0
	HemoglobinMax = 20.0
)

// ScreeningResult records pre-donation lab tests for a donor. Pathogen test
// fields are true when the result is negative, i.e. the blood is safe.
type ScreeningResult struct {
	ID             string
	DonorID        string
	BloodType      BloodType
	Hemoglobin     float64
	HIVTest        bool
	HepatitisBTest bool
	HepatitisCTest bool
	SyphilisTest   bool
	ScreeningDate  time.Time
	CreatedAt      time.Time
}
