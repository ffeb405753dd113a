// Package catalog drives product resolution against the master catalog:
// it loads the candidate pool, runs the matching pipeline, and applies
// the resulting decisions.
package catalog

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/masterrecord"
	"github.com/Ramsey-B/clover/internal/repositories/reviewqueue"
	"github.com/Ramsey-B/clover/internal/repositories/skumapping"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Service resolves incoming records against the master catalog and
// applies decisions: linking SKUs, creating masters, queueing reviews.
type Service struct {
	log          ectologger.Logger
	masters      *masterrecord.Repository
	mappings     *skumapping.Repository
	reviews      *reviewqueue.Repository
	orchestrator *matching.Orchestrator
	cache        *PoolCache
	emitter      *events.Emitter
}

// NewService creates a catalog service. The emitter may be nil when no
// event transport is configured.
func NewService(
	log ectologger.Logger,
	masters *masterrecord.Repository,
	mappings *skumapping.Repository,
	reviews *reviewqueue.Repository,
	orchestrator *matching.Orchestrator,
	cache *PoolCache,
	emitter *events.Emitter,
) *Service {
	return &Service{
		log:          log,
		masters:      masters,
		mappings:     mappings,
		reviews:      reviews,
		orchestrator: orchestrator,
		cache:        cache,
		emitter:      emitter,
	}
}

// snapshot is one consistent view of the catalog for a resolution call
type snapshot struct {
	pool  []models.MasterRecord
	links map[string]string
}

func (s snapshot) skuLinked(source models.Source, externalSKU, masterID string) bool {
	return s.links[string(source)+"/"+externalSKU] == masterID
}

// loadSnapshot loads the candidate pool and SKU link set, from cache when
// possible. Every record in one batch sees the same snapshot.
func (s *Service) loadSnapshot(ctx context.Context) (snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.loadSnapshot")
	defer span.End()

	snap := snapshot{
		pool:  s.cache.GetPool(ctx),
		links: s.cache.GetLinks(ctx),
	}

	if snap.pool == nil {
		pool, err := s.masters.ListAll(ctx)
		if err != nil {
			return snapshot{}, err
		}
		snap.pool = pool
		s.cache.SetPool(ctx, pool)
	}

	if snap.links == nil {
		links, err := s.mappings.LinkedSet(ctx)
		if err != nil {
			return snapshot{}, err
		}
		snap.links = links
		s.cache.SetLinks(ctx, links)
	}

	return snap, nil
}

// Resolve resolves one record. With apply set, the decision's side
// effects are persisted; otherwise the record is only classified.
func (s *Service) Resolve(ctx context.Context, record models.IncomingRecord, apply bool) (models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.Resolve")
	defer span.End()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return models.MatchResult{}, err
	}

	result, err := s.orchestrator.Resolve(ctx, record, snap.pool, snap.skuLinked)
	if err != nil {
		return models.MatchResult{}, err
	}

	if apply {
		if err := s.applyDecision(ctx, record, &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// ResolveAll resolves one record and returns the full ranked candidate
// list. Never applies side effects; it exists for review tooling.
func (s *Service) ResolveAll(ctx context.Context, record models.IncomingRecord) ([]models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.ResolveAll")
	defer span.End()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.orchestrator.ResolveAll(ctx, record, snap.pool, snap.skuLinked)
}

// ResolveBatch resolves a batch of records against one catalog snapshot.
// With apply set, decisions are applied per record after the whole batch
// has been classified, so the batch result itself stays deterministic.
func (s *Service) ResolveBatch(ctx context.Context, records []models.IncomingRecord, apply bool) (matching.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.ResolveBatch")
	defer span.End()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return matching.BatchResult{}, err
	}

	result, err := s.orchestrator.ResolveBatch(ctx, records, snap.pool, snap.skuLinked)
	if err != nil {
		return result, err
	}

	if apply {
		for i := range result.Outcomes {
			outcome := &result.Outcomes[i]
			if outcome.Result == nil {
				continue
			}
			if err := s.applyDecision(ctx, outcome.Record, outcome.Result); err != nil {
				s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"record": outcome.Record.Key(),
				}).Error("Failed to apply decision")
				outcome.Err = fmt.Sprintf("decision not applied: %v", err)
			}
		}
	}

	return result, nil
}

// applyDecision persists one decision's side effects and emits the
// corresponding events.
func (s *Service) applyDecision(ctx context.Context, record models.IncomingRecord, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.applyDecision")
	defer span.End()

	switch result.Decision {
	case models.DecisionAutoAccept:
		if result.Master == nil {
			return fmt.Errorf("accept decision for %s has no master", record.Key())
		}
		_, err := s.mappings.Link(ctx, &models.SkuMapping{
			Source:      string(record.Source),
			ExternalSKU: record.ExternalSKU,
			MasterID:    result.Master.ID,
			Confidence:  result.Confidence,
			LinkedBy:    models.LinkedByAuto,
		})
		if err != nil {
			return err
		}
		s.cache.Invalidate(ctx)

	case models.DecisionManualReview:
		if result.Master == nil {
			return fmt.Errorf("review decision for %s has no master", record.Key())
		}
		entry, err := s.reviews.Enqueue(ctx, &models.ReviewEntry{
			Source:      record.Source,
			ExternalSKU: record.ExternalSKU,
			Record:      flattenRecord(record),
			MasterID:    result.Master.ID,
			Confidence:  result.Confidence,
			Reasoning:   result.Reasoning,
		})
		if err != nil {
			return err
		}
		if s.emitter != nil {
			_ = s.emitter.EmitReviewEnqueued(ctx, entry)
		}

	case models.DecisionCreateNew:
		master, err := s.masters.Create(ctx, models.CreateMasterRecordRequest{
			CanonicalName:     record.Name,
			CanonicalBrand:    record.Brand,
			CanonicalCategory: record.Category,
			Barcode:           record.Barcode,
			Attributes:        record.Attributes,
		})
		if err != nil {
			return err
		}
		if _, err := s.mappings.Link(ctx, &models.SkuMapping{
			Source:      string(record.Source),
			ExternalSKU: record.ExternalSKU,
			MasterID:    master.ID,
			Confidence:  1.0,
			LinkedBy:    models.LinkedByAuto,
		}); err != nil {
			return err
		}
		s.cache.Invalidate(ctx)
		result.Master = master
		if s.emitter != nil {
			_ = s.emitter.EmitMasterCreated(ctx, record, master)
		}

	case models.DecisionAutoReject:
		// Classified only. The record stays unlinked.
	}

	if s.emitter != nil {
		_ = s.emitter.EmitResolved(ctx, record, *result)
	}
	return nil
}

// ApproveReview approves a pending review entry: the reviewed link is
// persisted and the entry closed.
func (s *Service) ApproveReview(ctx context.Context, id string, resolvedBy string) (*models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.ApproveReview")
	defer span.End()

	entry, err := s.reviews.Resolve(ctx, id, models.ReviewStatusApproved, resolvedBy)
	if err != nil {
		return nil, err
	}

	if _, err := s.mappings.Link(ctx, &models.SkuMapping{
		Source:      string(entry.Source),
		ExternalSKU: entry.ExternalSKU,
		MasterID:    entry.MasterID,
		Confidence:  entry.Confidence,
		LinkedBy:    models.LinkedByReview,
	}); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	if s.emitter != nil {
		_ = s.emitter.EmitReviewResolved(ctx, entry)
	}
	return entry, nil
}

// RejectReview rejects a pending review entry. No link is created.
func (s *Service) RejectReview(ctx context.Context, id string, resolvedBy string) (*models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.RejectReview")
	defer span.End()

	entry, err := s.reviews.Resolve(ctx, id, models.ReviewStatusRejected, resolvedBy)
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		_ = s.emitter.EmitReviewResolved(ctx, entry)
	}
	return entry, nil
}

// flattenRecord captures the incoming record's fields for review display
func flattenRecord(record models.IncomingRecord) models.AttributeMap {
	flat := models.AttributeMap{
		"name":     record.Name,
		"brand":    record.Brand,
		"category": record.Category,
		"barcode":  record.Barcode,
	}
	for k, v := range record.Attributes {
		flat["attr."+k] = v
	}
	return flat
}
