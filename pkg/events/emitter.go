// Package events handles event emission for resolution outcomes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Event types announced on the decisions topic
const (
	EventTypeRecordResolved = "record.resolved"
	EventTypeMasterCreated  = "master.created"
	EventTypeReviewEnqueued = "review.enqueued"
	EventTypeReviewResolved = "review.resolved"
)

// Emitter publishes resolution outcomes for downstream consumers (search
// indexing, pricing, analytics). Emission failures are logged and
// surfaced but never undo a persisted decision.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitResolved emits a record.resolved event for a decision
func (e *Emitter) EmitResolved(ctx context.Context, record models.IncomingRecord, result models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitResolved")
	defer span.End()

	event := &kafka.DecisionEvent{
		EventType:   EventTypeRecordResolved,
		Source:      record.Source,
		ExternalSKU: record.ExternalSKU,
		Decision:    result.Decision,
		Confidence:  result.Confidence,
		Reasoning:   result.Reasoning,
	}
	if result.Master != nil {
		event.MasterID = result.Master.ID
	}

	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit record.resolved event")
		return err
	}

	return nil
}

// EmitMasterCreated emits a master.created event for a CREATE_NEW outcome
func (e *Emitter) EmitMasterCreated(ctx context.Context, record models.IncomingRecord, master *models.MasterRecord) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMasterCreated")
	defer span.End()

	event := &kafka.DecisionEvent{
		EventType:   EventTypeMasterCreated,
		Source:      record.Source,
		ExternalSKU: record.ExternalSKU,
		MasterID:    master.ID,
		Decision:    models.DecisionCreateNew,
		Confidence:  1.0,
	}

	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit master.created event")
		return err
	}

	return nil
}

// EmitReviewEnqueued emits a review.enqueued event for a MANUAL_REVIEW outcome
func (e *Emitter) EmitReviewEnqueued(ctx context.Context, entry *models.ReviewEntry) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewEnqueued")
	defer span.End()

	event := &kafka.DecisionEvent{
		EventType:   EventTypeReviewEnqueued,
		Source:      entry.Source,
		ExternalSKU: entry.ExternalSKU,
		MasterID:    entry.MasterID,
		Decision:    models.DecisionManualReview,
		Confidence:  entry.Confidence,
		Reasoning:   entry.Reasoning,
	}

	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.enqueued event")
		return err
	}

	return nil
}

// EmitReviewResolved emits a review.resolved event after human adjudication
func (e *Emitter) EmitReviewResolved(ctx context.Context, entry *models.ReviewEntry) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewResolved")
	defer span.End()

	decision := models.DecisionAutoReject
	if entry.Status == models.ReviewStatusApproved {
		decision = models.DecisionAutoAccept
	}

	event := &kafka.DecisionEvent{
		EventType:   EventTypeReviewResolved,
		Source:      entry.Source,
		ExternalSKU: entry.ExternalSKU,
		MasterID:    entry.MasterID,
		Decision:    decision,
		Confidence:  entry.Confidence,
	}

	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.resolved event")
		return err
	}

	return nil
}
