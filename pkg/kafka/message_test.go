package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestMessageSourceFromHeader(t *testing.T) {
	msg := &IncomingMessage{
		Headers: map[string]string{"source": "ozon"},
		Value:   []byte(`{"source": "wildberries"}`),
	}

	// The header wins over the payload field
	assert.Equal(t, models.SourceOzon, msg.Source())
}

func TestMessageSourceFromPayload(t *testing.T) {
	msg := &IncomingMessage{
		Headers: map[string]string{},
		Value:   []byte(`{"source": "wildberries", "nmID": 123}`),
	}

	assert.Equal(t, models.SourceWildberries, msg.Source())
}

func TestMessageSourceMissing(t *testing.T) {
	msg := &IncomingMessage{
		Headers: map[string]string{},
		Value:   []byte(`{"offer_id": "OZ-1"}`),
	}

	assert.Equal(t, models.Source(""), msg.Source())
}

func TestMessagePayload(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`{"offer_id": "OZ-1", "name": "Молоко"}`)}

	payload, err := msg.Payload()
	require.NoError(t, err)
	assert.Equal(t, "OZ-1", payload["offer_id"])

	msg.Value = []byte(`broken`)
	_, err = msg.Payload()
	require.Error(t, err)
}

func TestMessageBatchDetection(t *testing.T) {
	batch := &IncomingMessage{
		Value: []byte(`{"source": "ozon", "records": [{"offer_id": "OZ-1"}, {"offer_id": "OZ-2"}]}`),
	}
	single := &IncomingMessage{
		Value: []byte(`{"source": "ozon", "offer_id": "OZ-1"}`),
	}

	assert.True(t, batch.IsBatch())
	assert.False(t, single.IsBatch())

	parsed, err := batch.ParseBatch()
	require.NoError(t, err)
	assert.Equal(t, "ozon", parsed.Source)
	assert.Len(t, parsed.Records, 2)
}
