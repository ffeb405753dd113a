package matching

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type enricherFunc func(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error)

func (f enricherFunc) Enrich(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error) {
	return f(ctx, record)
}

func newTestOrchestrator(t *testing.T, enricher Enricher, ocfg OrchestratorConfig, mcfg MatcherConfig) *Orchestrator {
	t.Helper()
	fusion, err := NewScoreFusion(DefaultFusionWeights())
	require.NoError(t, err)
	policy, err := NewDecisionPolicy(DefaultThresholds())
	require.NoError(t, err)
	matcher := NewCandidateMatcher(noopLogger(), NewSignalScorer(nil), mcfg)
	return NewOrchestrator(noopLogger(), matcher, fusion, policy, enricher, ocfg)
}

// sparsePool mimics masters imported before category backfill: a missing
// category on the master side counts against records that do carry one,
// so review-band cases are easiest to see here.
func sparsePool() []models.MasterRecord {
	return []models.MasterRecord{
		{ID: "m-1", CanonicalName: "Молоко Простоквашино 1 литр", CanonicalBrand: "Простоквашино", Barcode: "4601234567890"},
		{ID: "m-3", CanonicalName: "Шоколад Алёнка 100г", CanonicalBrand: "Алёнка", Barcode: "4609999888777"},
	}
}

func TestResolveExactBarcode(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	record := models.IncomingRecord{
		Source:      models.SourceOzon,
		ExternalSKU: "ozon-1",
		Name:        "Молоко Простоквашино 1 л",
		Barcode:     "4601234567890",
	}

	result, err := o.Resolve(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Master)
	assert.Equal(t, "m-1", result.Master.ID)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, models.DecisionAutoAccept, result.Decision)
	assert.Equal(t, ReasonExactMatch, result.Reasoning)
}

func TestResolveFuzzyNameGoesToReview(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	// Same product, the marketplace abbreviates the unit
	record := models.IncomingRecord{
		Source: models.SourceWildberries,
		Name:   "Молоко Простоквашино 1л",
		Brand:  "Простоквашино",
	}

	result, err := o.Resolve(context.Background(), record, sparsePool(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Master)
	assert.Equal(t, "m-1", result.Master.ID)
	assert.GreaterOrEqual(t, result.Confidence, 0.70)
	assert.Less(t, result.Confidence, 0.90)
	assert.InDelta(t, 0.878, result.Confidence, 0.01)
	assert.Equal(t, models.DecisionManualReview, result.Decision)
	assert.Contains(t, result.Reasoning, "brand match")
}

func TestResolveCreateNew(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	t.Run("empty pool", func(t *testing.T) {
		record := models.IncomingRecord{Source: models.SourceManual, ExternalSKU: "x-1"}

		result, err := o.Resolve(context.Background(), record, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, result.Master)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, models.DecisionCreateNew, result.Decision)
		assert.Equal(t, ReasonNoCandidates, result.Reasoning)
	})

	t.Run("blank record against populated pool", func(t *testing.T) {
		record := models.IncomingRecord{Source: models.SourceManual, ExternalSKU: "x-2"}

		result, err := o.Resolve(context.Background(), record, milkPool(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, models.DecisionCreateNew, result.Decision)
	})
}

func TestResolveAllOrdering(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	record := models.IncomingRecord{
		Source: models.SourceOzon,
		Name:   "Молоко Простоквашино 1 литр",
		Brand:  "Простоквашино",
	}

	ranked, err := o.ResolveAll(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Confidence, ranked[i].Confidence)
	}
	assert.Equal(t, "m-1", ranked[0].Master.ID)
}

func TestResolveAllTiesKeepPoolOrder(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	pool := []models.MasterRecord{
		{ID: "first", CanonicalName: "Сок яблочный 1л", CanonicalBrand: "Добрый"},
		{ID: "second", CanonicalName: "Сок яблочный 1л", CanonicalBrand: "Добрый"},
	}
	record := models.IncomingRecord{
		Source: models.SourceOzon,
		Name:   "Сок яблочный 1л",
		Brand:  "Добрый",
	}

	ranked, err := o.ResolveAll(context.Background(), record, pool, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].Confidence, ranked[1].Confidence)
	assert.Equal(t, "first", ranked[0].Master.ID)
	assert.Equal(t, "second", ranked[1].Master.ID)
}

func TestResolveAllCapsCandidates(t *testing.T) {
	record := models.IncomingRecord{
		Source: models.SourceOzon,
		Name:   "Молоко Простоквашино 1 литр",
		Brand:  "Простоквашино",
	}

	uncapped := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 1}, DefaultMatcherConfig())
	all, err := uncapped.ResolveAll(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.Greater(t, len(all), 2)

	capped := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 1, MaxCandidates: 2}, DefaultMatcherConfig())
	ranked, err := capped.ResolveAll(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// The cap trims the tail, never the best candidates
	assert.Equal(t, all[0].Master.ID, ranked[0].Master.ID)
	assert.Equal(t, all[1].Master.ID, ranked[1].Master.ID)
}

func TestResolveDeterminism(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	record := models.IncomingRecord{
		Source: models.SourceOzon,
		Name:   "Молоко Простоквашино 1 литр",
		Brand:  "Простоквашино",
	}
	pool := milkPool()

	first, err := o.ResolveAll(context.Background(), record, pool, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := o.ResolveAll(context.Background(), record, pool, nil)
		require.NoError(t, err)
		assert.True(t, reflect.DeepEqual(first, again))
	}
}

func TestResolveEnricherApplied(t *testing.T) {
	// The feed carries the barcode with separators; enrichment cleans it
	// up before matching, turning a fuzzy case into an exact one.
	enricher := enricherFunc(func(_ context.Context, r models.IncomingRecord) (models.IncomingRecord, error) {
		r.Barcode = strings.ReplaceAll(r.Barcode, "-", "")
		return r, nil
	})
	o := newTestOrchestrator(t, enricher, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	record := models.IncomingRecord{Source: models.SourceSber, Name: "Молоко", Barcode: "460-123456-7890"}
	result, err := o.Resolve(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Master)
	assert.Equal(t, "m-1", result.Master.ID)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestResolveBatchOutcomes(t *testing.T) {
	o := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 3}, DefaultMatcherConfig())

	records := []models.IncomingRecord{
		{Source: models.SourceOzon, ExternalSKU: "a", Barcode: "4601234567890"},                             // exact
		{Source: models.SourceOzon, ExternalSKU: "b", Name: "Молоко Простоквашино 1л", Brand: "Простоквашино"}, // review
		{Source: models.SourceOzon, ExternalSKU: "c", Name: "Стиральный порошок Tide 3кг"},                  // nothing close
	}

	result, err := o.ResolveBatch(context.Background(), records, sparsePool(), nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	// Outcomes come back in input order
	for i := range records {
		assert.Equal(t, records[i].ExternalSKU, result.Outcomes[i].Record.ExternalSKU)
		require.NotNil(t, result.Outcomes[i].Result)
		assert.Empty(t, result.Outcomes[i].Err)
	}

	assert.Equal(t, models.DecisionAutoAccept, result.Outcomes[0].Result.Decision)
	assert.Equal(t, models.DecisionManualReview, result.Outcomes[1].Result.Decision)

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.AutoAccepted)
	assert.Equal(t, 1, result.Stats.ManualReview)
	assert.Empty(t, result.Stats.Errors)
}

func TestResolveBatchIsolatesFailures(t *testing.T) {
	enricher := enricherFunc(func(_ context.Context, r models.IncomingRecord) (models.IncomingRecord, error) {
		switch r.ExternalSKU {
		case "bad":
			return r, errors.New("marketplace lookup returned 500")
		case "corrupt":
			panic("nil attribute map dereference")
		}
		return r, nil
	})
	o := newTestOrchestrator(t, enricher, OrchestratorConfig{Workers: 2}, DefaultMatcherConfig())

	records := []models.IncomingRecord{
		{Source: models.SourceOzon, ExternalSKU: "ok-1", Barcode: "4601234567890"},
		{Source: models.SourceOzon, ExternalSKU: "bad", Name: "Молоко"},
		{Source: models.SourceOzon, ExternalSKU: "corrupt", Name: "Молоко"},
		{Source: models.SourceOzon, ExternalSKU: "ok-2", Barcode: "4609999888777"},
	}

	result, err := o.ResolveBatch(context.Background(), records, milkPool(), nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 4)

	assert.NotNil(t, result.Outcomes[0].Result)
	assert.NotNil(t, result.Outcomes[3].Result)

	assert.Nil(t, result.Outcomes[1].Result)
	assert.Contains(t, result.Outcomes[1].Err, "marketplace lookup returned 500")
	assert.Nil(t, result.Outcomes[2].Result)
	assert.Contains(t, result.Outcomes[2].Err, "panic during resolution")

	assert.Equal(t, 4, result.Stats.Total)
	assert.Equal(t, 2, result.Stats.AutoAccepted)
	require.Len(t, result.Stats.Errors, 2)
	assert.Equal(t, "bad", result.Stats.Errors[0].ExternalSKU)
	assert.Equal(t, "corrupt", result.Stats.Errors[1].ExternalSKU)
}

func TestResolveBatchDeterministicStats(t *testing.T) {
	records := []models.IncomingRecord{
		{Source: models.SourceOzon, ExternalSKU: "a", Barcode: "4601234567890"},
		{Source: models.SourceOzon, ExternalSKU: "b", Name: "Молоко Простоквашино 1 литр", Brand: "Простоквашино"},
		{Source: models.SourceOzon, ExternalSKU: "c", Name: "Стиральный порошок Tide 3кг"},
		{Source: models.SourceOzon, ExternalSKU: "d", Name: "Шоколад Алёнка 100г", Brand: "Алёнка", Category: "Кондитерские изделия"},
	}
	pool := milkPool()

	var first BatchResult
	for run := 0; run < 5; run++ {
		o := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 4}, DefaultMatcherConfig())
		result, err := o.ResolveBatch(context.Background(), records, pool, nil)
		require.NoError(t, err)
		if run == 0 {
			first = result
			continue
		}
		assert.True(t, reflect.DeepEqual(first, result), "run %d differs", run)
	}
}

func TestResolveBatchBlockingEnabled(t *testing.T) {
	cfg := DefaultMatcherConfig()
	cfg.EnableBlocking = true
	o := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 2}, cfg)

	records := []models.IncomingRecord{
		{Source: models.SourceOzon, ExternalSKU: "a", Barcode: "4601234567890"},
		{Source: models.SourceOzon, ExternalSKU: "b", Name: "Молоко Простоквашино 1л", Brand: "Простоквашино"},
	}

	result, err := o.ResolveBatch(context.Background(), records, sparsePool(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAutoAccept, result.Outcomes[0].Result.Decision)
	assert.Equal(t, models.DecisionManualReview, result.Outcomes[1].Result.Decision)
}

func TestResolveBatchCancellation(t *testing.T) {
	// A context canceled before dispatch stops the batch immediately; no
	// record reaches a worker.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(t, nil, OrchestratorConfig{Workers: 2}, DefaultMatcherConfig())

	records := make([]models.IncomingRecord, 10)
	for i := range records {
		records[i] = models.IncomingRecord{Source: models.SourceOzon, ExternalSKU: "r", Name: "Молоко"}
	}

	result, err := o.ResolveBatch(ctx, records, milkPool(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Outcomes, 10)

	for i, outcome := range result.Outcomes {
		assert.Nil(t, outcome.Result, "outcome %d", i)
		assert.Equal(t, "batch canceled before record was processed", outcome.Err, "outcome %d", i)
	}
	require.Len(t, result.Stats.Errors, 10)
}

func TestResolveBatchEmpty(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultOrchestratorConfig(), DefaultMatcherConfig())

	result, err := o.ResolveBatch(context.Background(), nil, milkPool(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, result.Stats.Total)
}
