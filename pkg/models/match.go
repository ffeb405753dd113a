package models

import (
	"time"
)

// Decision is the action taken for a resolved record
type Decision string

const (
	DecisionAutoAccept   Decision = "auto_accept"
	DecisionManualReview Decision = "manual_review"
	DecisionAutoReject   Decision = "auto_reject"
	DecisionCreateNew    Decision = "create_new"
)

// Signal is a single similarity measurement. HasBasis is false when neither
// side carried the attribute, in which case the signal is excluded from
// fusion rather than counted as a failure.
type Signal struct {
	Value    float64 `json:"value"`
	HasBasis bool    `json:"has_basis"`
}

// NoSignal returns a signal with no basis for comparison
func NoSignal() Signal {
	return Signal{}
}

// Measured returns a signal carrying a measured value
func Measured(value float64) Signal {
	return Signal{Value: value, HasBasis: true}
}

// SignalSet is the per-candidate evaluation of one incoming record against
// one master record. Produced fresh per pair, never persisted.
type SignalSet struct {
	ExactSKUMatch       bool   `json:"exact_sku_match"`
	ExactBarcodeMatch   bool   `json:"exact_barcode_match"`
	NameSimilarity      Signal `json:"name_similarity"`
	BrandMatch          Signal `json:"brand_match"`
	CategoryMatch       Signal `json:"category_match"`
	AttributeSimilarity Signal `json:"attribute_similarity"`

	// ShortName is set when either compared name is present but shorter
	// than three runes. Short names are too ambiguous to trust.
	ShortName bool `json:"short_name,omitempty"`
}

// ExactMatch reports whether an exact identifier short-circuits fusion
func (s SignalSet) ExactMatch() bool {
	return s.ExactSKUMatch || s.ExactBarcodeMatch
}

// Empty reports whether no measured signal has any basis for comparison
func (s SignalSet) Empty() bool {
	return !s.ExactMatch() &&
		!s.NameSimilarity.HasBasis &&
		!s.BrandMatch.HasBasis &&
		!s.CategoryMatch.HasBasis &&
		!s.AttributeSimilarity.HasBasis
}

// MatchResult is one candidate's outcome for an incoming record
type MatchResult struct {
	Master     *MasterRecord `json:"master,omitempty"`
	Confidence float64       `json:"confidence"`
	Decision   Decision      `json:"decision"`
	Reasoning  string        `json:"reasoning"`
	Signals    SignalSet     `json:"signals"`
}

// BatchError records a per-record failure during batch resolution
type BatchError struct {
	ExternalSKU string `json:"external_sku"`
	Source      Source `json:"source"`
	Message     string `json:"message"`
}

// BatchStats aggregates outcomes of a batch resolution. Partial success is
// the normal batch outcome, not an edge case.
type BatchStats struct {
	Total        int          `json:"total"`
	AutoAccepted int          `json:"auto_accepted"`
	ManualReview int          `json:"manual_review"`
	AutoRejected int          `json:"auto_rejected"`
	CreatedNew   int          `json:"created_new"`
	Errors       []BatchError `json:"errors,omitempty"`
}

// Count increments the tally for a decision
func (s *BatchStats) Count(d Decision) {
	switch d {
	case DecisionAutoAccept:
		s.AutoAccepted++
	case DecisionManualReview:
		s.ManualReview++
	case DecisionAutoReject:
		s.AutoRejected++
	case DecisionCreateNew:
		s.CreatedNew++
	}
}

// ErrorCount returns the number of failed records
func (s BatchStats) ErrorCount() int {
	return len(s.Errors)
}

// SuccessRate is the fraction of records resolved without error
func (s BatchStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-len(s.Errors)) / float64(s.Total)
}

// AutoRate is the fraction of records handled without human involvement
func (s BatchStats) AutoRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.AutoAccepted+s.AutoRejected+s.CreatedNew) / float64(s.Total)
}

// ReviewRate is the fraction of records routed to manual review
func (s BatchStats) ReviewRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ManualReview) / float64(s.Total)
}

// ReviewEntry is a MANUAL_REVIEW outcome queued for human adjudication
type ReviewEntry struct {
	ID          string       `json:"id" db:"id"`
	Source      Source       `json:"source" db:"source"`
	ExternalSKU string       `json:"external_sku" db:"external_sku"`
	Record      AttributeMap `json:"record" db:"record"` // flattened incoming record fields
	MasterID    string       `json:"master_id" db:"master_id"`
	Confidence  float64      `json:"confidence" db:"confidence"`
	Reasoning   string       `json:"reasoning" db:"reasoning"`
	Status      string       `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy  *string      `json:"resolved_by,omitempty" db:"resolved_by"`
}

// ReviewEntry statuses
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// ResolveRequest is the HTTP request for resolving a single record
type ResolveRequest struct {
	Record IncomingRecord `json:"record" validate:"required"`
	// Apply controls whether the decision's side effects (SKU linking,
	// master creation, review queueing) are persisted or only classified.
	Apply bool `json:"apply"`
}

// ResolveBatchRequest is the HTTP request for resolving a batch of records
type ResolveBatchRequest struct {
	Records []IncomingRecord `json:"records" validate:"required,min=1,dive"`
	Apply   bool             `json:"apply"`
}
