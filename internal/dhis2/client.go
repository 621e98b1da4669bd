// Package dhis2 is the HTTP adapter for the external DHIS2 registry. It is
// the single point of network failure in the service: every call classifies
// remote failures as transient (retried with exponential backoff) or fatal
// (surfaced immediately with the remote message intact).
package dhis2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"bloodbank/internal/domain"
)

// Config holds the registry connection settings.
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	APIVersion string
	Timeout    time.Duration
	MaxTries   uint
	// RetryInterval seeds the exponential backoff between attempts.
	RetryInterval time.Duration
	Mapper        Mapper
}

// Client talks to one DHIS2 instance over basic-auth HTTP.
type Client struct {
	apiURL        string
	username      string
	password      string
	httpClient    *http.Client
	maxTries      uint
	retryInterval time.Duration
	mapper        Mapper
	log           zerolog.Logger
}

// New validates the configuration and builds a Client.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "40"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &Client{
		apiURL:        strings.TrimRight(cfg.BaseURL, "/") + "/api/" + cfg.APIVersion,
		username:      cfg.Username,
		password:      cfg.Password,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		maxTries:      cfg.MaxTries,
		retryInterval: cfg.RetryInterval,
		mapper:        cfg.Mapper,
		log:           log,
	}, nil
}

// ImportSummary is the registry's accounting for one data value import.
type ImportSummary struct {
	Status    string
	Imported  int
	Updated   int
	Ignored   int
	Deleted   int
	Conflicts []Conflict
	// Raw keeps the remote response verbatim for the sync log.
	Raw string
}

// Accepted is the number of records the registry took in.
func (s *ImportSummary) Accepted() int { return s.Imported + s.Updated }

// Conflict is one rejected value in an import summary.
type Conflict struct {
	Object string `json:"object"`
	Value  string `json:"value"`
}

// Ping verifies connectivity and credentials against the registry.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/me", nil, nil)
	return err
}

// OrgUnit is a registry organisation unit.
type OrgUnit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// OrganisationUnits lists the organisation units known to the registry.
func (c *Client) OrganisationUnits(ctx context.Context) ([]OrgUnit, error) {
	query := url.Values{}
	query.Set("fields", "id,name,level")
	query.Set("paging", "false")
	raw, err := c.do(ctx, http.MethodGet, "/organisationUnits", query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing organisation units: %w", err)
	}
	var out struct {
		OrganisationUnits []OrgUnit `json:"organisationUnits"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding organisation units: %w", err)
	}
	return out.OrganisationUnits, nil
}

// DataElement is a registry data element definition.
type DataElement struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ValueType  string `json:"valueType"`
	DomainType string `json:"domainType"`
}

// DataElements lists data elements of the given domain type.
func (c *Client) DataElements(ctx context.Context, domainType string) ([]DataElement, error) {
	query := url.Values{}
	query.Set("fields", "id,name,valueType,domainType")
	query.Set("filter", "domainType:eq:"+domainType)
	query.Set("paging", "false")
	raw, err := c.do(ctx, http.MethodGet, "/dataElements", query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing data elements: %w", err)
	}
	var out struct {
		DataElements []DataElement `json:"dataElements"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding data elements: %w", err)
	}
	return out.DataElements, nil
}

// ImportDataValues posts a data value set with the CREATE_AND_UPDATE
// strategy and returns the parsed import summary.
func (c *Client) ImportDataValues(ctx context.Context, values []DataValue) (*ImportSummary, error) {
	query := url.Values{}
	query.Set("importStrategy", "CREATE_AND_UPDATE")
	body := map[string]any{"dataValues": values}
	raw, err := c.do(ctx, http.MethodPost, "/dataValueSets", query, body)
	if err != nil {
		return nil, fmt.Errorf("importing data values: %w", err)
	}

	var out struct {
		ImportSummary struct {
			Status      string     `json:"status"`
			ImportCount int        `json:"importCount"`
			UpdateCount int        `json:"updateCount"`
			IgnoreCount int        `json:"ignoreCount"`
			DeleteCount int        `json:"deleteCount"`
			Conflicts   []Conflict `json:"conflicts"`
		} `json:"importSummary"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding import summary: %w", err)
	}
	return &ImportSummary{
		Status:    out.ImportSummary.Status,
		Imported:  out.ImportSummary.ImportCount,
		Updated:   out.ImportSummary.UpdateCount,
		Ignored:   out.ImportSummary.IgnoreCount,
		Deleted:   out.ImportSummary.DeleteCount,
		Conflicts: out.ImportSummary.Conflicts,
		Raw:       string(raw),
	}, nil
}

// ExportDonations maps and imports donation records.
func (c *Client) ExportDonations(ctx context.Context, donations []domain.Donation) (*ImportSummary, error) {
	var values []DataValue
	for _, d := range donations {
		values = append(values, c.mapper.DonationValues(d)...)
	}
	return c.ImportDataValues(ctx, values)
}

// ExportInventory maps and imports the current inventory snapshot.
func (c *Client) ExportInventory(ctx context.Context, products []domain.BloodProduct) (*ImportSummary, error) {
	return c.ImportDataValues(ctx, c.mapper.InventoryValues(products, time.Now().UTC()))
}

// ExportDonors registers donors as tracked entity instances. The registry
// accepts them one at a time, so a mid-batch failure reports how many were
// taken before it.
func (c *Client) ExportDonors(ctx context.Context, donors []domain.Donor) (*ImportSummary, error) {
	summary := &ImportSummary{Status: "SUCCESS"}
	var lastRaw string
	for _, d := range donors {
		raw, err := c.do(ctx, http.MethodPost, "/trackedEntityInstances", nil, c.mapper.TrackedEntityFor(d))
		if err != nil {
			summary.Status = "ERROR"
			summary.Raw = lastRaw
			return summary, fmt.Errorf("registering donor %s: %w", d.ID, err)
		}
		summary.Imported++
		lastRaw = string(raw)
	}
	summary.Raw = lastRaw
	return summary, nil
}

// do runs one request with retries on transient failures. Fatal registry
// errors abort the retry loop immediately.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	operation := func() ([]byte, error) {
		raw, err := c.doOnce(ctx, method, path, query, body)
		if err != nil && !IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return raw, err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	raw, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	reqURL := c.apiURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("encoding request body: %v", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network level failures (timeouts, refused connections) are
		// retryable.
		return nil, &Error{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("reading response: %v", err), Transient: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		apiErr := classify(resp.StatusCode, msg)
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Bool("transient", apiErr.Transient).Msg("registry request failed")
		return nil, apiErr
	}
	return raw, nil
}
