package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// SkuLinkedFunc reports whether an external SKU is already linked to a
// master record in the mapping store. SKUs are namespaced per source; the
// same SKU string on two marketplaces is two different identifiers. The
// scorer never queries storage itself; the lookup is passed in by the
// caller.
type SkuLinkedFunc func(source models.Source, externalSKU string, masterID string) bool

// AttributeScorer compares structured attribute maps. It is an extension
// point; the default scorer reports no basis so the signal is excluded
// from fusion unless attributes are supplied and a real scorer is wired.
type AttributeScorer interface {
	Score(a, b map[string]string) models.Signal
}

// noopAttributeScorer is the default: attributes never contribute
type noopAttributeScorer struct{}

func (noopAttributeScorer) Score(a, b map[string]string) models.Signal {
	return models.NoSignal()
}

// OverlapAttributeScorer scores attribute maps by the fraction of keys in
// either map whose normalized values agree in both.
type OverlapAttributeScorer struct{}

func (OverlapAttributeScorer) Score(a, b map[string]string) models.Signal {
	if len(a) == 0 && len(b) == 0 {
		return models.NoSignal()
	}
	if len(a) == 0 || len(b) == 0 {
		return models.Measured(0)
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
	}
	for k := range b {
		union[k] = struct{}{}
	}

	agreed := 0
	for k := range union {
		av, aok := a[k]
		bv, bok := b[k]
		if aok && bok && normalizers.Brand(av) == normalizers.Brand(bv) {
			agreed++
		}
	}

	return models.Measured(float64(agreed) / float64(len(union)))
}

// SignalScorer computes the per-signal similarity between one incoming
// record and one master record.
type SignalScorer struct {
	scorer *Scorer
	attrs  AttributeScorer
}

// NewSignalScorer creates a signal scorer. A nil AttributeScorer disables
// the attribute signal.
func NewSignalScorer(attrs AttributeScorer) *SignalScorer {
	if attrs == nil {
		attrs = noopAttributeScorer{}
	}
	return &SignalScorer{
		scorer: NewScorer(),
		attrs:  attrs,
	}
}

// Score evaluates every signal for a (record, candidate) pair.
func (s *SignalScorer) Score(record models.IncomingRecord, candidate models.MasterRecord, skuLinked SkuLinkedFunc) models.SignalSet {
	set := models.SignalSet{}

	if skuLinked != nil && record.ExternalSKU != "" {
		set.ExactSKUMatch = skuLinked(record.Source, record.ExternalSKU, candidate.ID)
	}

	recBarcode := strings.TrimSpace(record.Barcode)
	candBarcode := strings.TrimSpace(candidate.Barcode)
	set.ExactBarcodeMatch = recBarcode != "" && recBarcode == candBarcode

	set.NameSimilarity, set.ShortName = s.nameSignal(record.Name, candidate.CanonicalName)
	set.BrandMatch = s.equalitySignal(record.Brand, candidate.CanonicalBrand, normalizers.Brand)
	set.CategoryMatch = s.equalitySignal(record.Category, candidate.CanonicalCategory, normalizers.Brand)
	set.AttributeSimilarity = s.attrs.Score(record.Attributes, candidate.Attributes)

	return set
}

// nameSignal computes normalized name similarity. Both names absent means
// no signal. One name absent is a measured failure, not an exception.
func (s *SignalScorer) nameSignal(a, b string) (models.Signal, bool) {
	na := normalizers.ProductName(a)
	nb := normalizers.ProductName(b)

	if na == "" && nb == "" {
		return models.NoSignal(), false
	}

	short := shortName(na) || shortName(nb)

	if na == "" || nb == "" {
		return models.Measured(0), short
	}

	return models.Measured(s.scorer.Levenshtein(na, nb)), short
}

// shortName reports a present name of fewer than three runes
func shortName(normalized string) bool {
	return normalized != "" && utf8.RuneCountInString(normalized) < 3
}

// equalitySignal is case-insensitive exact equality after normalization.
// Absent on both sides is no signal; absent on one side is a failure.
func (s *SignalScorer) equalitySignal(a, b string, normalize normalizers.Normalizer) models.Signal {
	na := normalize(a)
	nb := normalize(b)

	if na == "" && nb == "" {
		return models.NoSignal()
	}
	return models.Measured(s.scorer.ExactMatch(na, nb, true))
}
