package matching

import (
	"context"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ScoredCandidate pairs a candidate master record with its signal set and
// the preliminary ordering score. Rank is only used to order candidates
// before fusion; the fused confidence can and does reorder them.
type ScoredCandidate struct {
	Master  models.MasterRecord
	Signals models.SignalSet
	Rank    float64

	pos int // position in the input pool, for stable tie-breaks
}

// CandidateMatcher runs the signal scorer over a candidate pool and
// returns candidates ranked by a preliminary score.
type CandidateMatcher struct {
	log     ectologger.Logger
	signals *SignalScorer
	scorer  *Scorer
	cfg     MatcherConfig
}

// NewCandidateMatcher creates a candidate matcher
func NewCandidateMatcher(log ectologger.Logger, signals *SignalScorer, cfg MatcherConfig) *CandidateMatcher {
	if cfg.NGramSize <= 0 {
		cfg.NGramSize = 3
	}
	return &CandidateMatcher{
		log:     log,
		signals: signals,
		scorer:  NewScorer(),
		cfg:     cfg,
	}
}

// FindMatches scores the record against the pool and returns candidates in
// descending preliminary order. Exact identifier matches sort first; ties
// keep input pool order. Candidates with no exact match and no measured
// signal are dropped.
func (m *CandidateMatcher) FindMatches(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, skuLinked SkuLinkedFunc) []ScoredCandidate {
	var index *PoolIndex
	if m.cfg.EnableBlocking {
		index = NewPoolIndex(pool, m.cfg.NGramSize)
	}
	return m.findMatches(ctx, record, pool, index, skuLinked)
}

// FindMatchesIndexed is FindMatches with a prebuilt blocking index, for
// callers that resolve many records against one pool snapshot.
func (m *CandidateMatcher) FindMatchesIndexed(ctx context.Context, record models.IncomingRecord, index *PoolIndex, skuLinked SkuLinkedFunc) []ScoredCandidate {
	return m.findMatches(ctx, record, index.pool, index, skuLinked)
}

func (m *CandidateMatcher) findMatches(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, index *PoolIndex, skuLinked SkuLinkedFunc) []ScoredCandidate {
	ctx, span := tracing.StartSpan(ctx, "matching.CandidateMatcher.FindMatches")
	defer span.End()

	positions := m.candidatePositions(record, pool, index, skuLinked)

	scored := make([]ScoredCandidate, 0, len(positions))
	for _, i := range positions {
		sig := m.signals.Score(record, pool[i], skuLinked)
		if !sig.ExactMatch() && sig.Empty() {
			continue
		}
		scored = append(scored, ScoredCandidate{
			Master:  pool[i],
			Signals: sig,
			Rank:    m.preliminaryRank(sig),
			pos:     i,
		})
	}

	// Stable: equal ranks preserve pool order, which keeps output
	// deterministic for identical inputs.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Rank > scored[j].Rank
	})

	m.log.WithContext(ctx).WithFields(map[string]any{
		"record":          record.Key(),
		"pool_size":       len(pool),
		"scored":          len(positions),
		"candidate_count": len(scored),
	}).Debug("Scored candidates")

	return scored
}

// candidatePositions selects which pool positions to score, in ascending
// pool order. Without blocking this is the whole pool.
func (m *CandidateMatcher) candidatePositions(record models.IncomingRecord, pool []models.MasterRecord, index *PoolIndex, skuLinked SkuLinkedFunc) []int {
	if index == nil {
		positions := make([]int, len(pool))
		for i := range pool {
			positions[i] = i
		}
		return positions
	}

	selected := index.Candidates(record)

	// Blocking must never drop an exact identifier match. Barcodes are
	// covered by the index; SKU links are only visible through the lookup
	// predicate, so sweep it over the full pool. The predicate is cheap,
	// the expensive part is string scoring.
	if skuLinked != nil && record.ExternalSKU != "" {
		for i := range pool {
			if skuLinked(record.Source, record.ExternalSKU, pool[i].ID) {
				selected[i] = struct{}{}
			}
		}
	}

	positions := make([]int, 0, len(selected))
	for i := range selected {
		positions = append(positions, i)
	}
	sort.Ints(positions)
	return positions
}

// preliminaryRank orders candidates before fusion: exact matches first,
// the rest by a weighted sum of the measured signals. This weight table is
// intentionally separate from FusionWeights.
func (m *CandidateMatcher) preliminaryRank(sig models.SignalSet) float64 {
	if sig.ExactMatch() {
		return 2.0
	}

	w := m.cfg.RankWeights
	scores := make(map[string]float64, 3)
	weights := make(map[string]float64, 3)
	if sig.NameSimilarity.HasBasis {
		scores["name"] = sig.NameSimilarity.Value
		weights["name"] = w.Name
	}
	if sig.BrandMatch.HasBasis {
		scores["brand"] = sig.BrandMatch.Value
		weights["brand"] = w.Brand
	}
	if sig.CategoryMatch.HasBasis {
		scores["category"] = sig.CategoryMatch.Value
		weights["category"] = w.Category
	}
	return m.scorer.WeightedScore(scores, weights)
}

// PoolIndex is a blocking index over one immutable pool snapshot: barcode
// exact lookups plus normalized-name n-gram posting lists. It narrows the
// candidate set before scoring; records with nothing to block on fall
// back to the full pool.
type PoolIndex struct {
	pool      []models.MasterRecord
	byBarcode map[string][]int
	ngrams    map[string][]int
	n         int
}

// NewPoolIndex builds a blocking index for a pool snapshot
func NewPoolIndex(pool []models.MasterRecord, n int) *PoolIndex {
	if n <= 0 {
		n = 3
	}
	ix := &PoolIndex{
		pool:      pool,
		byBarcode: make(map[string][]int),
		ngrams:    make(map[string][]int),
		n:         n,
	}

	for i := range pool {
		if bc := strings.TrimSpace(pool[i].Barcode); bc != "" {
			ix.byBarcode[bc] = append(ix.byBarcode[bc], i)
		}
		for _, g := range nameNGrams(pool[i].CanonicalName, n) {
			ix.ngrams[g] = append(ix.ngrams[g], i)
		}
	}

	return ix
}

// Pool returns the snapshot this index was built over
func (ix *PoolIndex) Pool() []models.MasterRecord {
	return ix.pool
}

// Candidates returns the set of pool positions worth scoring for a record.
func (ix *PoolIndex) Candidates(record models.IncomingRecord) map[int]struct{} {
	grams := nameNGrams(record.Name, ix.n)
	barcode := strings.TrimSpace(record.Barcode)

	// Nothing to block on: every candidate stays in play
	if len(grams) == 0 && barcode == "" {
		all := make(map[int]struct{}, len(ix.pool))
		for i := range ix.pool {
			all[i] = struct{}{}
		}
		return all
	}

	selected := make(map[int]struct{})
	if barcode != "" {
		for _, i := range ix.byBarcode[barcode] {
			selected[i] = struct{}{}
		}
	}
	for _, g := range grams {
		for _, i := range ix.ngrams[g] {
			selected[i] = struct{}{}
		}
	}
	return selected
}

// nameNGrams returns the distinct rune n-grams of a normalized name.
// Names shorter than n contribute themselves as a single gram.
func nameNGrams(name string, n int) []string {
	normalized := normalizers.ProductName(name)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	if len(runes) <= n {
		return []string{string(runes)}
	}

	seen := make(map[string]struct{})
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		g := string(runes[i : i+n])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		grams = append(grams, g)
	}
	return grams
}
