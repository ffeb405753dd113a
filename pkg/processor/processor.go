// Package processor handles incoming feed messages: it extracts product
// records from raw marketplace payloads, drops unchanged observations,
// and hands the rest to the catalog for resolution.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/catalog"
	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// seenTTL bounds how long an observation fingerprint suppresses
// re-resolution of an identical record
const seenTTL = 24 * time.Hour

// Processor consumes feed messages and resolves the records they carry
type Processor struct {
	logger    ectologger.Logger
	extractor *extractor.Extractor
	catalog   *catalog.Service
	dedup     *redis.Client
}

// NewProcessor creates a feed processor. A nil dedup client disables
// observation deduplication.
func NewProcessor(
	logger ectologger.Logger,
	ext *extractor.Extractor,
	catalogService *catalog.Service,
	dedup *redis.Client,
) *Processor {
	return &Processor{
		logger:    logger,
		extractor: ext,
		catalog:   catalogService,
		dedup:     dedup,
	}
}

// HandleMessage is the kafka.MessageHandler entry point. A returned error
// leaves the message uncommitted for redelivery.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	// Feed connectors propagate their trace through message headers
	if msg.TraceParent != "" {
		ctx = tracing.ContextWithTraceParent(ctx, msg.TraceParent, msg.TraceState)
	}

	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	source := msg.Source()
	if source == "" {
		// Unroutable messages are logged and committed; redelivery cannot fix them
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"topic": msg.Topic,
			"key":   msg.Key,
		}).Error("Feed message has no source, skipping")
		return nil
	}

	records, err := p.extractRecords(ctx, source, msg)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"source": source,
		}).Error("Failed to extract records, skipping message")
		return nil
	}

	records = p.dropUnchanged(ctx, records)
	if len(records) == 0 {
		return nil
	}

	result, err := p.catalog.ResolveBatch(ctx, records, true)
	if err != nil {
		return fmt.Errorf("resolve batch from %s: %w", source, err)
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"source":        source,
		"total":         result.Stats.Total,
		"auto_accepted": result.Stats.AutoAccepted,
		"manual_review": result.Stats.ManualReview,
		"created_new":   result.Stats.CreatedNew,
		"errors":        result.Stats.ErrorCount(),
	}).Info("Processed feed message")

	return nil
}

// extractRecords turns a feed message into incoming records. A message is
// either a multi-record batch or a single product payload.
func (p *Processor) extractRecords(ctx context.Context, source models.Source, msg *kafka.IncomingMessage) ([]models.IncomingRecord, error) {
	if msg.IsBatch() {
		batch, err := msg.ParseBatch()
		if err != nil {
			return nil, err
		}

		records := make([]models.IncomingRecord, 0, len(batch.Records))
		for _, raw := range batch.Records {
			record, err := p.extractor.RecordFromJSON(source, raw)
			if err != nil {
				// One malformed payload must not sink the batch
				p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"source": source,
				}).Warn("Skipping malformed feed payload")
				continue
			}
			records = append(records, record)
		}
		return records, nil
	}

	record, err := p.extractor.RecordFromJSON(source, json.RawMessage(msg.Value))
	if err != nil {
		return nil, err
	}
	return []models.IncomingRecord{record}, nil
}

// dropUnchanged filters out records whose fingerprint was already
// processed recently. Identical data resolves identically, so repeats
// are pure load.
func (p *Processor) dropUnchanged(ctx context.Context, records []models.IncomingRecord) []models.IncomingRecord {
	if p.dedup == nil {
		return records
	}

	kept := records[:0]
	for _, record := range records {
		key := "clover:seen:" + fingerprint.Record(record)
		fresh, err := p.dedup.SetNX(ctx, key, 1, seenTTL)
		if err != nil {
			// Dedup is an optimization; on Redis trouble process everything
			p.logger.WithContext(ctx).WithError(err).Warn("Dedup check failed, processing record")
			kept = append(kept, record)
			continue
		}
		if fresh {
			kept = append(kept, record)
		} else {
			p.logger.WithContext(ctx).WithFields(map[string]any{
				"record": record.Key(),
			}).Debug("Skipping unchanged observation")
		}
	}
	return kept
}
