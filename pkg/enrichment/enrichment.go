// Package enrichment augments incoming records before matching
package enrichment

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Chain applies enrichers in order. A failing enricher aborts the chain;
// the orchestrator records the failure against the record.
type Chain struct {
	enrichers []matching.Enricher
}

// NewChain creates an enrichment chain
func NewChain(enrichers ...matching.Enricher) *Chain {
	return &Chain{enrichers: enrichers}
}

// Enrich runs every enricher in order
func (c *Chain) Enrich(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error) {
	for _, e := range c.enrichers {
		var err error
		record, err = e.Enrich(ctx, record)
		if err != nil {
			return record, err
		}
	}
	return record, nil
}

// Cleaner tidies raw feed fields: trims whitespace and strips barcode
// formatting. A barcode that is not 8 to 14 digits after cleanup is
// dropped rather than passed to exact matching.
type Cleaner struct {
	logger ectologger.Logger
}

// NewCleaner creates a field cleaner
func NewCleaner(logger ectologger.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Enrich cleans the record in place
func (c *Cleaner) Enrich(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error) {
	record.ExternalSKU = strings.TrimSpace(record.ExternalSKU)
	record.Name = strings.TrimSpace(record.Name)
	record.Brand = strings.TrimSpace(record.Brand)
	record.Category = strings.TrimSpace(record.Category)

	if raw := strings.TrimSpace(record.Barcode); raw != "" {
		cleaned := normalizers.Barcode(raw)
		if cleaned == "" {
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"record":  record.Key(),
				"barcode": raw,
			}).Debug("Dropped malformed barcode")
		}
		record.Barcode = cleaned
	}

	return record, nil
}
