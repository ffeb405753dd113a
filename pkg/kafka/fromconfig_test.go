package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func feedConfig() config.Config {
	return config.Config{
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaInputTopic:    "product-feed",
		KafkaConsumerGroup: "clover-consumer",
		KafkaOutputTopic:   "resolution-events",
		KafkaBatchSize:     50,
		KafkaBatchTimeout:  250,
		KafkaRequiredAcks:  1,
		KafkaCompression:   "gzip",
	}
}

func TestNewConsumerFromConfig(t *testing.T) {
	handler := func(_ context.Context, _ *IncomingMessage) error { return nil }

	c := NewConsumerFromConfig(feedConfig(), noopLogger(), handler)
	t.Cleanup(func() { _ = c.reader.Close() })

	rc := c.reader.Config()
	assert.Equal(t, []string{"localhost:9092"}, rc.Brokers)
	assert.Equal(t, "product-feed", rc.Topic)
	assert.Equal(t, "clover-consumer", rc.GroupID)
}

func TestNewProducerFromConfig(t *testing.T) {
	p := NewProducerFromConfig(feedConfig(), noopLogger())
	t.Cleanup(func() { _ = p.Close() })

	require.NotNil(t, p.writer)
	assert.Equal(t, "resolution-events", p.topic)
	assert.Equal(t, 50, p.writer.BatchSize)
	assert.Equal(t, 250*time.Millisecond, p.writer.BatchTimeout)
	assert.Equal(t, kafkago.RequiredAcks(1), p.writer.RequiredAcks)
	assert.Equal(t, kafkago.Gzip, p.writer.Compression)
}
