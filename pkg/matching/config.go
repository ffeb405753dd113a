package matching

import (
	"fmt"
)

// FusionWeights are the per-signal weights used during score fusion.
// These are deliberately independent from MatcherConfig.RankWeights: signal
// extraction and decision weighting are tuned separately, and the two
// tables are not expected to agree.
type FusionWeights struct {
	Name       float64 `json:"name"`
	Brand      float64 `json:"brand"`
	Category   float64 `json:"category"`
	Attributes float64 `json:"attributes"`
}

// DefaultFusionWeights returns the default fusion weight table
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		Name:       0.4,
		Brand:      0.3,
		Category:   0.2,
		Attributes: 0.1,
	}
}

// Validate checks that weights are usable. Fails fast at construction time
// so per-record calls never see invalid configuration.
func (w FusionWeights) Validate() error {
	if w.Name < 0 || w.Brand < 0 || w.Category < 0 || w.Attributes < 0 {
		return fmt.Errorf("fusion weights must be non-negative: %+v", w)
	}
	if w.Name+w.Brand+w.Category+w.Attributes <= 0 {
		return fmt.Errorf("fusion weights must not all be zero")
	}
	return nil
}

// Thresholds maps confidence bands to decisions:
// confidence >= AutoAccept       -> AUTO_ACCEPT
// confidence >= ManualReview     -> MANUAL_REVIEW
// confidence >= AutoReject       -> AUTO_REJECT
// otherwise                      -> CREATE_NEW
type Thresholds struct {
	AutoAccept   float64 `json:"auto_accept"`
	ManualReview float64 `json:"manual_review"`
	AutoReject   float64 `json:"auto_reject"`
}

// DefaultThresholds returns the default decision thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoAccept:   0.90,
		ManualReview: 0.70,
		AutoReject:   0.30,
	}
}

// Validate enforces 0 <= auto_reject <= manual_review <= auto_accept <= 1
func (t Thresholds) Validate() error {
	if t.AutoReject < 0 || t.AutoAccept > 1 {
		return fmt.Errorf("thresholds must lie within [0,1]: %+v", t)
	}
	if t.AutoReject > t.ManualReview || t.ManualReview > t.AutoAccept {
		return fmt.Errorf("thresholds must be ordered auto_reject <= manual_review <= auto_accept: %+v", t)
	}
	return nil
}

// RankWeights are the weights for the preliminary candidate ordering
// computed before fusion. See the note on FusionWeights.
type RankWeights struct {
	Name     float64 `json:"name"`
	Brand    float64 `json:"brand"`
	Category float64 `json:"category"`
}

// DefaultRankWeights returns the default preliminary ranking weights
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Name:     0.5,
		Brand:    0.3,
		Category: 0.2,
	}
}

// MatcherConfig configures the candidate matcher
type MatcherConfig struct {
	RankWeights RankWeights

	// EnableBlocking activates the candidate pre-filter (barcode index +
	// normalized-name n-grams) ahead of full scoring. Off by default.
	// Blocking may skip weakly related tail candidates but never drops
	// an exact identifier match.
	EnableBlocking bool

	// NGramSize is the n-gram width for the name blocking index (default 3)
	NGramSize int
}

// DefaultMatcherConfig returns the default matcher configuration
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		RankWeights: DefaultRankWeights(),
		NGramSize:   3,
	}
}

// OrchestratorConfig configures batch resolution
type OrchestratorConfig struct {
	// Workers bounds the number of records resolved concurrently in a
	// batch. 1 or less means sequential.
	Workers int

	// MaxCandidates caps the ranked candidate list returned per record.
	// 0 means unlimited.
	MaxCandidates int
}

// DefaultOrchestratorConfig returns the default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{Workers: 4, MaxCandidates: 10}
}
