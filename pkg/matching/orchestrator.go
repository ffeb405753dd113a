package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ReasonNoCandidates is the reasoning emitted when the pool produced no
// usable candidate
const ReasonNoCandidates = "no candidates"

// Enricher augments an incoming record before matching (barcode cleanup,
// marketplace lookups). The orchestrator calls it ahead of the matcher;
// the matcher itself never enriches.
type Enricher interface {
	Enrich(ctx context.Context, record models.IncomingRecord) (models.IncomingRecord, error)
}

// Orchestrator drives the resolution pipeline end to end: enrich, score,
// fuse, decide. It holds no mutable state between calls.
type Orchestrator struct {
	log      ectologger.Logger
	matcher  *CandidateMatcher
	fusion   *ScoreFusion
	policy   *DecisionPolicy
	enricher Enricher
	cfg      OrchestratorConfig
}

// NewOrchestrator creates an orchestrator. The enricher may be nil.
func NewOrchestrator(
	log ectologger.Logger,
	matcher *CandidateMatcher,
	fusion *ScoreFusion,
	policy *DecisionPolicy,
	enricher Enricher,
	cfg OrchestratorConfig,
) *Orchestrator {
	return &Orchestrator{
		log:      log,
		matcher:  matcher,
		fusion:   fusion,
		policy:   policy,
		enricher: enricher,
		cfg:      cfg,
	}
}

// ResolveAll resolves one record against the pool and returns every
// usable candidate as a MatchResult, ranked by descending fused
// confidence. Equal confidences keep pool order.
func (o *Orchestrator) ResolveAll(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, skuLinked SkuLinkedFunc) ([]models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Orchestrator.ResolveAll")
	defer span.End()

	return o.resolveAgainst(ctx, record, pool, nil, skuLinked)
}

// Resolve resolves one record and returns the final decision: the
// top-ranked result, or CREATE_NEW when no candidate was usable.
func (o *Orchestrator) Resolve(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, skuLinked SkuLinkedFunc) (models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Orchestrator.Resolve")
	defer span.End()

	ranked, err := o.resolveAgainst(ctx, record, pool, nil, skuLinked)
	if err != nil {
		return models.MatchResult{}, err
	}
	return finalDecision(ranked), nil
}

func finalDecision(ranked []models.MatchResult) models.MatchResult {
	if len(ranked) == 0 {
		return models.MatchResult{
			Confidence: 0,
			Decision:   models.DecisionCreateNew,
			Reasoning:  ReasonNoCandidates,
		}
	}
	return ranked[0]
}

func (o *Orchestrator) resolveAgainst(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, index *PoolIndex, skuLinked SkuLinkedFunc) ([]models.MatchResult, error) {
	if o.enricher != nil {
		enriched, err := o.enricher.Enrich(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("enrichment failed for %s: %w", record.Key(), err)
		}
		record = enriched
	}

	var scored []ScoredCandidate
	if index != nil {
		scored = o.matcher.FindMatchesIndexed(ctx, record, index, skuLinked)
	} else {
		scored = o.matcher.FindMatches(ctx, record, pool, skuLinked)
	}

	// Fuse in pool order so the final stable sort keeps pool order for
	// equal confidences, independent of the preliminary ranking.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].pos < scored[j].pos
	})

	results := make([]models.MatchResult, 0, len(scored))
	for i := range scored {
		sig := scored[i].Signals
		confidence := o.fusion.Confidence(sig)
		master := scored[i].Master
		results = append(results, models.MatchResult{
			Master:     &master,
			Confidence: confidence,
			Decision:   o.policy.Decide(confidence),
			Reasoning:  o.fusion.Reasoning(sig, confidence),
			Signals:    sig,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if o.cfg.MaxCandidates > 0 && len(results) > o.cfg.MaxCandidates {
		results = results[:o.cfg.MaxCandidates]
	}

	return results, nil
}

// RecordOutcome is the per-record result of a batch resolution
type RecordOutcome struct {
	Record models.IncomingRecord `json:"record"`
	Result *models.MatchResult   `json:"result,omitempty"`
	Err    string                `json:"error,omitempty"`
}

// BatchResult holds all outcomes of a batch plus aggregate statistics
type BatchResult struct {
	Outcomes []RecordOutcome   `json:"outcomes"`
	Stats    models.BatchStats `json:"stats"`
}

// ResolveBatch resolves every record independently against one immutable
// pool snapshot. A failure on one record is captured in its outcome and
// never aborts the rest; the context can cancel the batch between
// records. Outcomes are returned in input order regardless of worker
// scheduling.
func (o *Orchestrator) ResolveBatch(ctx context.Context, records []models.IncomingRecord, pool []models.MasterRecord, skuLinked SkuLinkedFunc) (BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Orchestrator.ResolveBatch")
	defer span.End()

	outcomes := make([]RecordOutcome, len(records))
	for i := range records {
		outcomes[i] = RecordOutcome{Record: records[i]}
	}

	// One blocking index per batch amortizes the build across records
	var index *PoolIndex
	if o.matcher.cfg.EnableBlocking {
		index = NewPoolIndex(pool, o.matcher.cfg.NGramSize)
	}

	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = o.resolveRecord(ctx, records[i], pool, index, skuLinked)
			}
		}()
	}

	canceled := false
dispatch:
	for i := range records {
		// Checked before the select so an already-canceled context stops
		// dispatch immediately instead of racing the job send.
		if ctx.Err() != nil {
			canceled = true
			break
		}
		select {
		case <-ctx.Done():
			canceled = true
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled {
		for i := range outcomes {
			if outcomes[i].Result == nil && outcomes[i].Err == "" {
				outcomes[i].Err = "batch canceled before record was processed"
			}
		}
	}

	// Single-writer tally after all workers are done keeps the stats
	// deterministic and lock-free.
	stats := models.BatchStats{Total: len(records)}
	for i := range outcomes {
		if outcomes[i].Err != "" {
			stats.Errors = append(stats.Errors, models.BatchError{
				ExternalSKU: outcomes[i].Record.ExternalSKU,
				Source:      outcomes[i].Record.Source,
				Message:     outcomes[i].Err,
			})
			continue
		}
		if outcomes[i].Result != nil {
			stats.Count(outcomes[i].Result.Decision)
		}
	}

	o.log.WithContext(ctx).WithFields(map[string]any{
		"total":         stats.Total,
		"auto_accepted": stats.AutoAccepted,
		"manual_review": stats.ManualReview,
		"auto_rejected": stats.AutoRejected,
		"created_new":   stats.CreatedNew,
		"errors":        len(stats.Errors),
	}).Info("Batch resolution complete")

	result := BatchResult{Outcomes: outcomes, Stats: stats}
	if canceled {
		return result, ctx.Err()
	}
	return result, nil
}

// resolveRecord resolves one record, converting panics from corrupt data
// or misbehaving extensions into a recorded per-record failure.
func (o *Orchestrator) resolveRecord(ctx context.Context, record models.IncomingRecord, pool []models.MasterRecord, index *PoolIndex, skuLinked SkuLinkedFunc) (outcome RecordOutcome) {
	outcome = RecordOutcome{Record: record}

	defer func() {
		if r := recover(); r != nil {
			o.log.WithContext(ctx).WithFields(map[string]any{
				"record": record.Key(),
				"panic":  fmt.Sprint(r),
			}).Error("Record resolution panicked")
			outcome.Result = nil
			outcome.Err = fmt.Sprintf("panic during resolution: %v", r)
		}
	}()

	ranked, err := o.resolveAgainst(ctx, record, pool, index, skuLinked)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}

	final := finalDecision(ranked)
	outcome.Result = &final
	return outcome
}
