package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ReasonExactMatch is the reasoning emitted for identifier short-circuits
const ReasonExactMatch = "exact identifier match"

// highSignal is the sub-score above which brand and category are
// considered corroborating
const highSignal = 0.8

// ScoreFusion blends a signal set into a single confidence value in [0,1]
// and explains the result. Fusion weights are fixed at construction;
// invalid weights fail fast, never per record.
type ScoreFusion struct {
	weights FusionWeights
}

// NewScoreFusion creates a score fusion stage with validated weights
func NewScoreFusion(weights FusionWeights) (*ScoreFusion, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &ScoreFusion{weights: weights}, nil
}

// Confidence fuses the measured signals into one confidence value.
//
// An exact SKU or barcode match short-circuits to 1.0: those identifiers
// dominate every weaker signal. Otherwise the measured signals are blended
// by a weighted average over only the signals that have a basis for
// comparison, then adjusted:
//   - name similarity enters as similarity^1.5, which rewards near-exact
//     names and suppresses the noisy middle of the range
//   - a name shorter than three runes halves the confidence
//   - brand and category both above 0.8 corroborate each other (x1.1)
//
// The result is always clamped to [0,1].
func (f *ScoreFusion) Confidence(sig models.SignalSet) float64 {
	if sig.ExactMatch() {
		return 1.0
	}

	var sum, total float64
	if sig.NameSimilarity.HasBasis {
		sum += math.Pow(sig.NameSimilarity.Value, 1.5) * f.weights.Name
		total += f.weights.Name
	}
	if sig.BrandMatch.HasBasis {
		sum += sig.BrandMatch.Value * f.weights.Brand
		total += f.weights.Brand
	}
	if sig.CategoryMatch.HasBasis {
		sum += sig.CategoryMatch.Value * f.weights.Category
		total += f.weights.Category
	}
	if sig.AttributeSimilarity.HasBasis {
		sum += sig.AttributeSimilarity.Value * f.weights.Attributes
		total += f.weights.Attributes
	}

	if total == 0 {
		return 0
	}
	confidence := sum / total

	if sig.ShortName {
		confidence *= 0.5
	}
	if f.corroborated(sig) {
		confidence *= 1.1
	}

	return clamp01(confidence)
}

// Reasoning builds the human-readable explanation for a fused confidence:
// an ordered list of the contributing factors with their magnitudes.
func (f *ScoreFusion) Reasoning(sig models.SignalSet, confidence float64) string {
	if sig.ExactMatch() {
		return ReasonExactMatch
	}

	var parts []string
	if sig.NameSimilarity.HasBasis && sig.NameSimilarity.Value >= highSignal {
		parts = append(parts, fmt.Sprintf("high name similarity (%.0f%%)", sig.NameSimilarity.Value*100))
	}
	if sig.BrandMatch.HasBasis && sig.BrandMatch.Value > highSignal {
		parts = append(parts, "brand match")
	}
	if f.corroborated(sig) {
		parts = append(parts, "brand and category corroborate")
	}
	if sig.ShortName {
		parts = append(parts, "short name penalty applied")
	}
	parts = append(parts, fmt.Sprintf("aggregate score: %.0f%%", confidence*100))

	return strings.Join(parts, "; ")
}

func (f *ScoreFusion) corroborated(sig models.SignalSet) bool {
	return sig.BrandMatch.HasBasis && sig.BrandMatch.Value > highSignal &&
		sig.CategoryMatch.HasBasis && sig.CategoryMatch.Value > highSignal
}
