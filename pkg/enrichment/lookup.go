package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// maxLookupResponseSize bounds catalog service responses (1MB)
const maxLookupResponseSize = 1 * 1024 * 1024

// LookupConfig holds marketplace lookup configuration
type LookupConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Lookup fills blank record fields from an external product data service.
// It only ever fills blanks; fields observed in the feed win over looked-up
// values. A missing product (404) is not an error.
type Lookup struct {
	client  *http.Client
	baseURL string
	logger  ectologger.Logger
}

// NewLookupFromConfig creates a marketplace lookup enricher from the
// service configuration
func NewLookupFromConfig(cfg config.Config, logger ectologger.Logger) *Lookup {
	return NewLookup(LookupConfig{
		BaseURL: cfg.LookupBaseURL,
		Timeout: cfg.LookupTimeout,
	}, logger)
}

// NewLookup creates a marketplace lookup enricher
func NewLookup(cfg LookupConfig, logger ectologger.Logger) *Lookup {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Lookup{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

type lookupResponse struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Barcode  string `json:"barcode"`
}

// Enrich looks the record up by source and SKU and fills blank fields
func (l *Lookup) Enrich(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Lookup.Enrich")
	defer span.End()

	// Nothing to fill
	if record.Name != "" && record.Brand != "" && record.Category != "" && record.Barcode != "" {
		return record, nil
	}

	endpoint := fmt.Sprintf("%s/products/%s/%s", l.baseURL, url.PathEscape(string(record.Source)), url.PathEscape(record.ExternalSKU))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return record, fmt.Errorf("lookup request for %s: %w", record.Key(), err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return record, fmt.Errorf("lookup for %s: %w", record.Key(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return record, nil
	}
	if resp.StatusCode != http.StatusOK {
		return record, fmt.Errorf("lookup for %s returned status %d", record.Key(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupResponseSize))
	if err != nil {
		return record, fmt.Errorf("lookup response for %s: %w", record.Key(), err)
	}

	var data lookupResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return record, fmt.Errorf("lookup response for %s: %w", record.Key(), err)
	}

	filled := 0
	if record.Name == "" && data.Name != "" {
		record.Name = data.Name
		filled++
	}
	if record.Brand == "" && data.Brand != "" {
		record.Brand = data.Brand
		filled++
	}
	if record.Category == "" && data.Category != "" {
		record.Category = data.Category
		filled++
	}
	if record.Barcode == "" && data.Barcode != "" {
		record.Barcode = data.Barcode
		filled++
	}

	if filled > 0 {
		l.logger.WithContext(ctx).WithFields(map[string]any{
			"record": record.Key(),
			"filled": filled,
		}).Debug("Filled record fields from lookup")
	}

	return record, nil
}
