package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bloodbank/internal/domain"
	"bloodbank/internal/importer"
)

// apiDate accepts both date-only and RFC 3339 timestamps on the wire.
type apiDate struct {
	time.Time
}

func (d *apiDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type donorPayload struct {
	DonorID    string `json:"donor_id"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Occupation string `json:"occupation"`
	Location   string `json:"location"`
	Contact    string `json:"contact"`
}

type donationPayload struct {
	DonationID      string  `json:"donation_id"`
	DonorID         string  `json:"donor_id"`
	DonationDate    apiDate `json:"donation_date"`
	BloodType       string  `json:"blood_type"`
	VolumeCollected float64 `json:"volume_collected"`
	CollectionSite  string  `json:"collection_site"`
	StaffID         string  `json:"staff_id"`
}

type productPayload struct {
	ProductID      string   `json:"product_id"`
	DonationID     string   `json:"donation_id"`
	BloodType      string   `json:"blood_type"`
	ProductType    string   `json:"product_type"`
	Volume         float64  `json:"volume"`
	CollectionDate apiDate  `json:"collection_date"`
	ExpiryDate     apiDate  `json:"expiry_date"`
	Status         string   `json:"status"`
	Location       string   `json:"location"`
	Temperature    *float64 `json:"temperature"`
}

type screeningPayload struct {
	DonorID        string  `json:"donor_id"`
	BloodType      string  `json:"blood_type"`
	Hemoglobin     float64 `json:"hemoglobin"`
	HIVTest        bool    `json:"hiv_test"`
	HepatitisBTest bool    `json:"hepatitis_b_test"`
	HepatitisCTest bool    `json:"hepatitis_c_test"`
	SyphilisTest   bool    `json:"syphilis_test"`
	ScreeningDate  apiDate `json:"screening_date"`
}

type movementPayload struct {
	MovementID   string  `json:"movement_id"`
	ProductID    string  `json:"product_id"`
	MovementType string  `json:"movement_type"`
	Quantity     int     `json:"quantity"`
	MovementDate apiDate `json:"movement_date"`
	FromLocation string  `json:"from_location"`
	ToLocation   string  `json:"to_location"`
	Reason       string  `json:"reason"`
	StaffID      string  `json:"staff_id"`
}

type importResponse struct {
	Status string `json:"status"`
	importer.Result
	Message string `json:"message"`
}

func (a *App) respondImport(w http.ResponseWriter, res importer.Result, noun string) {
	total := res.Imported + res.Failed
	a.json(w, http.StatusOK, importResponse{
		Status:  "completed",
		Result:  res,
		Message: fmt.Sprintf("Imported %d of %d %s", res.Imported, total, noun),
	})
}

func decodeBatch[T any](r *http.Request) ([]T, error) {
	var items []T
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// ImportDonors handles POST /import/donors.
func (a *App) ImportDonors(w http.ResponseWriter, r *http.Request) {
	payloads, err := decodeBatch[donorPayload](r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	donors := make([]domain.Donor, 0, len(payloads))
	for _, p := range payloads {
		donors = append(donors, domain.Donor{
			ID:         p.DonorID,
			Age:        p.Age,
			Gender:     domain.Gender(p.Gender),
			Occupation: p.Occupation,
			Location:   p.Location,
			Contact:    p.Contact,
		})
	}
	a.respondImport(w, a.Importer.ImportDonors(r.Context(), donors), "donors")
}

// ImportDonations handles POST /import/donations.
func (a *App) ImportDonations(w http.ResponseWriter, r *http.Request) {
	payloads, err := decodeBatch[donationPayload](r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	donations := make([]domain.Donation, 0, len(payloads))
	for _, p := range payloads {
		donations = append(donations, domain.Donation{
			ID:              p.DonationID,
			DonorID:         p.DonorID,
			DonationDate:    p.DonationDate.Time,
			BloodType:       domain.BloodType(p.BloodType),
			VolumeCollected: p.VolumeCollected,
			CollectionSite:  p.CollectionSite,
			StaffID:         p.StaffID,
		})
	}
	a.respondImport(w, a.Importer.ImportDonations(r.Context(), donations), "donations")
}

// ImportProducts handles POST /import/blood-products.
func (a *App) ImportProducts(w http.ResponseWriter, r *http.Request) {
	payloads, err := decodeBatch[productPayload](r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	products := make([]domain.BloodProduct, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, domain.BloodProduct{
			ID:             p.ProductID,
			DonationID:     p.DonationID,
			BloodType:      domain.BloodType(p.BloodType),
			ProductType:    p.ProductType,
			Volume:         p.Volume,
			CollectionDate: p.CollectionDate.Time,
			ExpiryDate:     p.ExpiryDate.Time,
			Status:         domain.ProductStatus(p.Status),
			Location:       p.Location,
			Temperature:    p.Temperature,
		})
	}
	a.respondImport(w, a.Importer.ImportProducts(r.Context(), products), "blood products")
}

// ImportScreeningResults handles POST /import/screening-results.
func (a *App) ImportScreeningResults(w http.ResponseWriter, r *http.Request) {
	payloads, err := decodeBatch[screeningPayload](r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	results := make([]domain.ScreeningResult, 0, len(payloads))
	for _, p := range payloads {
		results = append(results, domain.ScreeningResult{
			DonorID:        p.DonorID,
			BloodType:      domain.BloodType(p.BloodType),
			Hemoglobin:     p.Hemoglobin,
			HIVTest:        p.HIVTest,
			HepatitisBTest: p.HepatitisBTest,
			HepatitisCTest: p.HepatitisCTest,
			SyphilisTest:   p.SyphilisTest,
			ScreeningDate:  p.ScreeningDate.Time,
		})
	}
	a.respondImport(w, a.Importer.ImportScreeningResults(r.Context(), results), "screening results")
}

// ImportMovements handles POST /import/stock-movements.
func (a *App) ImportMovements(w http.ResponseWriter, r *http.Request) {
	payloads, err := decodeBatch[movementPayload](r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	movements := make([]domain.StockMovement, 0, len(payloads))
	for _, p := range payloads {
		movements = append(movements, domain.StockMovement{
			ID:           p.MovementID,
			ProductID:    p.ProductID,
			MovementType: domain.MovementType(p.MovementType),
			Quantity:     p.Quantity,
			MovementDate: p.MovementDate.Time,
			FromLocation: p.FromLocation,
			ToLocation:   p.ToLocation,
			Reason:       p.Reason,
			StaffID:      p.StaffID,
		})
	}
	a.respondImport(w, a.Importer.ImportMovements(r.Context(), movements), "stock movements")
}
