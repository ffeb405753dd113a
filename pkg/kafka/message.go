package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string
}

// Source resolves the marketplace a feed message came from. Feed
// connectors set the "source" header; older connectors put it in the
// payload instead.
func (m *IncomingMessage) Source() models.Source {
	if s := m.Headers["source"]; s != "" {
		return models.Source(s)
	}

	var envelope struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(m.Value, &envelope); err == nil && envelope.Source != "" {
		return models.Source(envelope.Source)
	}
	return ""
}

// Payload returns the raw product payload for field extraction
func (m *IncomingMessage) Payload() (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FeedBatch is a connector message carrying multiple product payloads at
// once. Connectors that page through marketplace APIs emit these.
type FeedBatch struct {
	Source  string            `json:"source"`
	Records []json.RawMessage `json:"records"`
}

// IsBatch reports whether the message is a multi-record feed batch
func (m *IncomingMessage) IsBatch() bool {
	var batch FeedBatch
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return false
	}
	return len(batch.Records) > 0
}

// ParseBatch parses the message as a multi-record feed batch
func (m *IncomingMessage) ParseBatch() (*FeedBatch, error) {
	var batch FeedBatch
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}
