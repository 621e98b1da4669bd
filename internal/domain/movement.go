package domain

import "time"

// MovementType enumerates stock movement directions.
type MovementType string

const (
	MovementIn       MovementType = "IN"
	MovementOut      MovementType = "OUT"
	MovementTransfer MovementType = "TRANSFER"
)

// Valid reports whether the value is a known movement type.
func (m MovementType) Valid() bool {
	switch m {
	case MovementIn, MovementOut, MovementTransfer:
		return true
	}
	return false
}

// StockMovement tracks a blood product entering, leaving or moving between
// storage locations.
type StockMovement struct {
	ID           string
	ProductID    string
	MovementType MovementType
	Quantity     int
	MovementDate time.Time
	FromLocation string
	ToLocation   string
	Reason       string
	StaffID      string
	CreatedAt    time.Time
}
