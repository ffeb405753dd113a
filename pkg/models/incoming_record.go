package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Source identifies the marketplace a record was observed on
type Source string

const (
	SourceOzon        Source = "ozon"
	SourceWildberries Source = "wildberries"
	SourceYandex      Source = "yandex_market"
	SourceSber        Source = "sber_mega_market"
	SourceManual      Source = "manual"
)

// IncomingRecord is a single product observation from a source system.
// It is consumed once per resolution call and never persisted by the core.
type IncomingRecord struct {
	ExternalSKU string            `json:"external_sku" validate:"required"`
	Source      Source            `json:"source" validate:"required"`
	Barcode     string            `json:"barcode,omitempty"`
	Name        string            `json:"name,omitempty"`
	Brand       string            `json:"brand,omitempty"`
	Category    string            `json:"category,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Key returns an identifier for logging and error reporting
func (r IncomingRecord) Key() string {
	return string(r.Source) + "/" + r.ExternalSKU
}

// AttributeMap is a string map stored as JSONB
type AttributeMap map[string]string

func (m *AttributeMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("AttributeMap.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, m)
}

func (m AttributeMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
