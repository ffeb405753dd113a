package models

import (
	"time"
)

// MasterRecord is the canonical, deduplicated representation of a product.
// The ID is stable once created; descriptive fields can be re-curated.
type MasterRecord struct {
	ID                string            `json:"id" db:"id"`
	CanonicalName     string            `json:"canonical_name" db:"canonical_name"`
	CanonicalBrand    string            `json:"canonical_brand,omitempty" db:"canonical_brand"`
	CanonicalCategory string            `json:"canonical_category,omitempty" db:"canonical_category"`
	Barcode           string            `json:"barcode,omitempty" db:"barcode"` // 8-14 digits when set
	Attributes        AttributeMap      `json:"attributes,omitempty" db:"attributes"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
	DeletedAt         *time.Time        `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateMasterRecordRequest is the request to create a master record
type CreateMasterRecordRequest struct {
	CanonicalName     string            `json:"canonical_name" validate:"required"`
	CanonicalBrand    string            `json:"canonical_brand,omitempty"`
	CanonicalCategory string            `json:"canonical_category,omitempty"`
	Barcode           string            `json:"barcode,omitempty" validate:"omitempty,numeric,min=8,max=14"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

// UpdateMasterRecordRequest is the request to update a master record's
// descriptive fields. The ID is immutable.
type UpdateMasterRecordRequest struct {
	CanonicalName     *string           `json:"canonical_name,omitempty"`
	CanonicalBrand    *string           `json:"canonical_brand,omitempty"`
	CanonicalCategory *string           `json:"canonical_category,omitempty"`
	Barcode           *string           `json:"barcode,omitempty" validate:"omitempty,numeric,min=8,max=14"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

// MasterRecordListResponse is the response for listing master records
type MasterRecordListResponse struct {
	Items      []MasterRecord `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// SkuMapping links a source-system SKU to a master record
type SkuMapping struct {
	ID          string     `json:"id" db:"id"`
	Source      string     `json:"source" db:"source"`
	ExternalSKU string     `json:"external_sku" db:"external_sku"`
	MasterID    string     `json:"master_id" db:"master_id"`
	Confidence  float64    `json:"confidence" db:"confidence"`
	LinkedBy    string     `json:"linked_by" db:"linked_by"` // auto, review, import
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// SkuMapping link origins
const (
	LinkedByAuto   = "auto"
	LinkedByReview = "review"
	LinkedByImport = "import"
)
