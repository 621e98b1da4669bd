package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/dhis2"
	"bloodbank/internal/domain"
	"bloodbank/internal/health"
	"bloodbank/internal/importer"
	"bloodbank/internal/syncer"
	"bloodbank/internal/testutil"
)

type acceptAllRegistry struct{}

func (acceptAllRegistry) ExportDonations(_ context.Context, donations []domain.Donation) (*dhis2.ImportSummary, error) {
	return &dhis2.ImportSummary{Status: "SUCCESS", Imported: len(donations)}, nil
}

func (acceptAllRegistry) ExportInventory(_ context.Context, products []domain.BloodProduct) (*dhis2.ImportSummary, error) {
	return &dhis2.ImportSummary{Status: "SUCCESS", Imported: len(products)}, nil
}

func (acceptAllRegistry) ExportDonors(_ context.Context, donors []domain.Donor) (*dhis2.ImportSummary, error) {
	return &dhis2.ImportSummary{Status: "SUCCESS", Imported: len(donors)}, nil
}

type testApp struct {
	app       *App
	donors    *testutil.MemDonors
	donations *testutil.MemDonations
	products  *testutil.MemProducts
	jobs      *testutil.MemJobs
	status    *testutil.MemStatus
}

func upPinger() health.Pinger {
	return health.PingFunc(func(context.Context) error { return nil })
}

func newTestApp(t *testing.T, db health.Pinger) *testApp {
	t.Helper()

	donors := testutil.NewMemDonors()
	donations := testutil.NewMemDonations()
	products := testutil.NewMemProducts()
	jobs := testutil.NewMemJobs()
	status := testutil.NewMemStatus()
	log := zerolog.Nop()

	imp := importer.New(donors, donations, products, testutil.NewMemScreenings(), testutil.NewMemMovements(), log)
	orch := syncer.New(jobs, status, donors, donations, products, acceptAllRegistry{}, syncer.NewDedupCache(), syncer.Options{}, log)
	hlth := health.New(db, upPinger(), status, time.Second)

	app := NewApp(imp, orch, hlth, jobs, products, log)
	return &testApp{app: app, donors: donors, donations: donations, products: products, jobs: jobs, status: status}
}

func TestImportDonorsEndpoint(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	body := `[
		{"donor_id": "D001", "age": 30, "gender": "MALE", "occupation": "teacher", "location": "Accra", "contact": "+233200000001"},
		{"donor_id": "D002", "age": 17, "gender": "FEMALE", "occupation": "student", "location": "Kumasi", "contact": "+233200000002"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/import/donors", strings.NewReader(body))
	rr := httptest.NewRecorder()

	f.app.ImportDonors(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Status   string   `json:"status"`
		Imported int      `json:"imported_count"`
		Failed   int      `json:"failed_count"`
		Errors   []string `json:"errors"`
		Message  string   `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "D002")
	assert.Contains(t, resp.Message, "Imported 1 of 2")
	assert.Contains(t, f.donors.M, "D001")
}

func TestImportMalformedBodyRejected(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	req := httptest.NewRequest(http.MethodPost, "/import/donations", strings.NewReader(`{"not": "an array"`))
	rr := httptest.NewRecorder()

	f.app.ImportDonations(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "invalid request body", resp["error"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestImportDonationsAcceptsDateOnly(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	require.NoError(t, f.donors.Create(context.Background(), &domain.Donor{
		ID: "D001", Age: 30, Gender: domain.GenderMale,
	}))

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	body := `[{"donation_id": "DON001", "donor_id": "D001", "donation_date": "` + yesterday +
		`", "blood_type": "A+", "volume_collected": 450, "collection_site": "Accra Central", "staff_id": "S01"}]`
	req := httptest.NewRequest(http.MethodPost, "/import/donations", strings.NewReader(body))
	rr := httptest.NewRecorder()

	f.app.ImportDonations(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, f.donations.M, "DON001")
}

func TestSyncStartConflict(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	require.NoError(t, f.status.TryAcquire(context.Background(), domain.SyncInventory))

	req := httptest.NewRequest(http.MethodPost, "/sync/inventory", nil)
	rr := httptest.NewRecorder()
	f.app.SyncInventory(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "sync already in progress", resp["error"])
}

func TestSyncStartRejectsBadDaysBack(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	req := httptest.NewRequest(http.MethodPost, "/sync/donations?days_back=yesterday", nil)
	rr := httptest.NewRecorder()

	f.app.SyncDonations(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSyncLogNotFound(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	router := chi.NewRouter()
	router.Get("/sync/logs/{sync_id}", f.app.SyncLog)

	req := httptest.NewRequest(http.MethodGet, "/sync/logs/does-not-exist", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClearSyncCache(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	f.app.Sync.Cache().Remember(domain.SyncDonations, "DON001", "fp")

	req := httptest.NewRequest(http.MethodDelete, "/sync/cache", nil)
	rr := httptest.NewRecorder()
	f.app.ClearSyncCache(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, f.app.Sync.Cache().Len())
}

func TestReadinessReports503WhenDBDown(t *testing.T) {
	t.Parallel()

	down := health.PingFunc(func(context.Context) error { return context.DeadlineExceeded })
	f := newTestApp(t, down)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	f.app.Readiness(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "not_ready", resp["status"])
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	req := httptest.NewRequest(http.MethodGet, "/health/version", nil)
	rr := httptest.NewRecorder()
	f.app.Version(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, ServiceName, resp["service"])
	assert.Equal(t, APIPrefix, resp["api_prefix"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newTestApp(t, upPinger())
	f.products.MetricsResult = &domain.InventoryMetrics{
		TotalDonations:    12,
		TotalProducts:     10,
		AvailableProducts: 7,
		ExpiredProducts:   1,
		ByBloodType:       map[domain.BloodType]int{domain.BloodTypeAPos: 4, domain.BloodTypeONeg: 3},
	}

	req := httptest.NewRequest(http.MethodGet, "/health/metrics", nil)
	rr := httptest.NewRecorder()
	f.app.Metrics(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		TotalDonations int            `json:"total_donations"`
		Available      int            `json:"available_products"`
		Distribution   map[string]int `json:"blood_type_distribution"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 12, resp.TotalDonations)
	assert.Equal(t, 7, resp.Available)
	assert.Equal(t, 4, resp.Distribution["A+"])
}
