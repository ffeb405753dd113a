// Package extractor turns raw marketplace feed payloads into incoming
// records using per-source field profiles.
package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Profile maps feed payload paths to incoming record fields for one
// marketplace. Paths use dot notation with optional array indexes, e.g.
// "result.items[0].offer_id".
type Profile struct {
	Source         models.Source     `json:"source"`
	SKUPath        string            `json:"sku_path"`
	NamePath       string            `json:"name_path"`
	BrandPath      string            `json:"brand_path"`
	CategoryPath   string            `json:"category_path"`
	BarcodePath    string            `json:"barcode_path"`
	AttributePaths map[string]string `json:"attribute_paths,omitempty"`
}

// DefaultProfiles returns the field profiles for the supported
// marketplace feed formats.
func DefaultProfiles() map[models.Source]Profile {
	return map[models.Source]Profile{
		models.SourceOzon: {
			Source:       models.SourceOzon,
			SKUPath:      "offer_id",
			NamePath:     "name",
			BrandPath:    "brand",
			CategoryPath: "category",
			BarcodePath:  "barcodes[0]",
		},
		models.SourceWildberries: {
			Source:       models.SourceWildberries,
			SKUPath:      "nmID",
			NamePath:     "title",
			BrandPath:    "brand",
			CategoryPath: "subjectName",
			BarcodePath:  "sizes[0].skus[0]",
		},
		models.SourceYandex: {
			Source:       models.SourceYandex,
			SKUPath:      "offer.shopSku",
			NamePath:     "offer.name",
			BrandPath:    "offer.vendor",
			CategoryPath: "offer.category",
			BarcodePath:  "offer.barcodes[0]",
		},
		models.SourceSber: {
			Source:       models.SourceSber,
			SKUPath:      "offerId",
			NamePath:     "name",
			BrandPath:    "brandName",
			CategoryPath: "categoryName",
			BarcodePath:  "barCodes[0]",
		},
		models.SourceManual: {
			Source:       models.SourceManual,
			SKUPath:      "external_sku",
			NamePath:     "name",
			BrandPath:    "brand",
			CategoryPath: "category",
			BarcodePath:  "barcode",
		},
	}
}

// Extractor builds incoming records from raw feed payloads
type Extractor struct {
	profiles map[models.Source]Profile
}

// New creates an extractor with the default marketplace profiles
func New() *Extractor {
	return NewWithProfiles(DefaultProfiles())
}

// NewWithProfiles creates an extractor with explicit profiles
func NewWithProfiles(profiles map[models.Source]Profile) *Extractor {
	return &Extractor{profiles: profiles}
}

// Record extracts an incoming record from a feed payload. The external
// SKU is required; every other field is filled when the payload has it.
func (e *Extractor) Record(source models.Source, payload map[string]any) (models.IncomingRecord, error) {
	profile, ok := e.profiles[source]
	if !ok {
		return models.IncomingRecord{}, fmt.Errorf("no extraction profile for source %q", source)
	}

	sku := e.stringAt(payload, profile.SKUPath)
	if sku == "" {
		return models.IncomingRecord{}, fmt.Errorf("payload from %s has no sku at %q", source, profile.SKUPath)
	}

	record := models.IncomingRecord{
		ExternalSKU: sku,
		Source:      source,
		Name:        e.stringAt(payload, profile.NamePath),
		Brand:       e.stringAt(payload, profile.BrandPath),
		Category:    e.stringAt(payload, profile.CategoryPath),
		Barcode:     e.stringAt(payload, profile.BarcodePath),
	}

	if len(profile.AttributePaths) > 0 {
		attrs := make(map[string]string, len(profile.AttributePaths))
		for key, path := range profile.AttributePaths {
			if v := e.stringAt(payload, path); v != "" {
				attrs[key] = v
			}
		}
		if len(attrs) > 0 {
			record.Attributes = attrs
		}
	}

	return record, nil
}

// RecordFromJSON extracts an incoming record from raw JSON
func (e *Extractor) RecordFromJSON(source models.Source, data json.RawMessage) (models.IncomingRecord, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.IncomingRecord{}, fmt.Errorf("invalid feed payload: %w", err)
	}
	return e.Record(source, payload)
}

// stringAt extracts the value at path and renders it as a string.
// Missing segments yield "".
func (e *Extractor) stringAt(payload map[string]any, path string) string {
	if path == "" {
		return ""
	}

	var current any = payload
	for _, part := range parsePath(path) {
		if part.key != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return ""
			}
			current, ok = m[part.key]
			if !ok {
				return ""
			}
		}
		if part.isArray {
			arr, ok := current.([]any)
			if !ok || part.index < 0 || part.index >= len(arr) {
				return ""
			}
			current = arr[part.index]
		}
	}

	return toString(current)
}

// pathPart is one parsed segment of a dot-notation path
type pathPart struct {
	key     string
	isArray bool
	index   int
}

func parsePath(path string) []pathPart {
	var parts []pathPart
	for _, seg := range strings.Split(path, ".") {
		part := pathPart{key: seg}
		if open := strings.Index(seg, "["); open != -1 && strings.HasSuffix(seg, "]") {
			index, err := strconv.Atoi(seg[open+1 : len(seg)-1])
			if err == nil {
				part.key = seg[:open]
				part.isArray = true
				part.index = index
			}
		}
		parts = append(parts, part)
	}
	return parts
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		// Feed connectors serialize numeric SKUs as JSON numbers
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
