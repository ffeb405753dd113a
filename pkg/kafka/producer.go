package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducerFromConfig creates a producer for the decision event topic
// named in the service configuration
func NewProducerFromConfig(cfg config.Config, logger ectologger.Logger) *Producer {
	return NewProducer(ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// DecisionEvent announces the outcome of resolving one incoming record
type DecisionEvent struct {
	EventType   string          `json:"event_type"` // record.resolved, master.created, review.enqueued
	Source      models.Source   `json:"source"`
	ExternalSKU string          `json:"external_sku"`
	MasterID    string          `json:"master_id,omitempty"`
	Decision    models.Decision `json:"decision"`
	Confidence  float64         `json:"confidence"`
	Reasoning   string          `json:"reasoning,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// PublishDecisionEvent publishes a single decision event
func (p *Producer) PublishDecisionEvent(ctx context.Context, event *DecisionEvent) error {
	return p.PublishDecisionEvents(ctx, []*DecisionEvent{event})
}

// PublishDecisionEvents publishes decision events in a batch. Events are
// keyed by source/external_sku so per-record ordering holds across
// re-resolutions.
func (p *Producer) PublishDecisionEvents(ctx context.Context, events []*DecisionEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDecisionEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages, err := p.buildMessages(ctx, events)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish decision events")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published decision events")

	return nil
}

// buildMessages serializes events into Kafka messages. The active trace
// is carried in message headers so downstream consumers can join it.
func (p *Producer) buildMessages(ctx context.Context, events []*DecisionEvent) ([]kafka.Message, error) {
	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}

		data, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}

		headers := []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source", Value: []byte(event.Source)},
			{Key: "decision", Value: []byte(event.Decision)},
		}
		if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
			headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
		}
		if tracestate := tracing.GetTraceState(ctx); tracestate != "" {
			headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(tracestate)})
		}

		messages[i] = kafka.Message{
			Topic:   p.topic,
			Key:     []byte(string(event.Source) + "/" + event.ExternalSKU),
			Value:   data,
			Headers: headers,
		}
	}
	return messages, nil
}
