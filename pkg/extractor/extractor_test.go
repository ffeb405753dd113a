package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestExtractOzonPayload(t *testing.T) {
	e := New()

	payload := map[string]any{
		"offer_id": "OZ-12345",
		"name":     "Молоко Простоквашино 1л",
		"brand":    "Простоквашино",
		"category": "Молочные продукты",
		"barcodes": []any{"4601234567890", "4601234567891"},
	}

	record, err := e.Record(models.SourceOzon, payload)
	require.NoError(t, err)

	assert.Equal(t, "OZ-12345", record.ExternalSKU)
	assert.Equal(t, models.SourceOzon, record.Source)
	assert.Equal(t, "Молоко Простоквашино 1л", record.Name)
	assert.Equal(t, "Простоквашино", record.Brand)
	assert.Equal(t, "Молочные продукты", record.Category)
	assert.Equal(t, "4601234567890", record.Barcode)
}

func TestExtractWildberriesNestedBarcode(t *testing.T) {
	e := New()

	payload := map[string]any{
		"nmID":        float64(987654321),
		"title":       "Шоколад Алёнка 100г",
		"brand":       "Алёнка",
		"subjectName": "Кондитерские изделия",
		"sizes": []any{
			map[string]any{
				"skus": []any{"4609999888777"},
			},
		},
	}

	record, err := e.Record(models.SourceWildberries, payload)
	require.NoError(t, err)

	// Numeric SKUs come through without a decimal point
	assert.Equal(t, "987654321", record.ExternalSKU)
	assert.Equal(t, "4609999888777", record.Barcode)
	assert.Equal(t, "Шоколад Алёнка 100г", record.Name)
}

func TestExtractYandexNestedOffer(t *testing.T) {
	e := New()

	payload := map[string]any{
		"offer": map[string]any{
			"shopSku":  "YM-555",
			"name":     "Стиральный порошок Tide 3кг",
			"vendor":   "Tide",
			"category": "Бытовая химия",
			"barcodes": []any{"4602222333444"},
		},
	}

	record, err := e.Record(models.SourceYandex, payload)
	require.NoError(t, err)

	assert.Equal(t, "YM-555", record.ExternalSKU)
	assert.Equal(t, "Tide", record.Brand)
	assert.Equal(t, "4602222333444", record.Barcode)
}

func TestExtractMissingSkuFails(t *testing.T) {
	e := New()

	_, err := e.Record(models.SourceOzon, map[string]any{
		"name": "Товар без артикула",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sku")
}

func TestExtractUnknownSourceFails(t *testing.T) {
	e := New()

	_, err := e.Record(models.Source("aliexpress"), map[string]any{
		"offer_id": "123",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extraction profile")
}

func TestExtractMissingOptionalFields(t *testing.T) {
	e := New()

	record, err := e.Record(models.SourceOzon, map[string]any{
		"offer_id": "OZ-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "OZ-1", record.ExternalSKU)
	assert.Empty(t, record.Name)
	assert.Empty(t, record.Brand)
	assert.Empty(t, record.Barcode)
}

func TestExtractAttributePaths(t *testing.T) {
	profiles := DefaultProfiles()
	profile := profiles[models.SourceOzon]
	profile.AttributePaths = map[string]string{
		"weight": "attributes.weight",
		"color":  "attributes.color",
	}
	profiles[models.SourceOzon] = profile

	e := NewWithProfiles(profiles)

	record, err := e.Record(models.SourceOzon, map[string]any{
		"offer_id": "OZ-2",
		"attributes": map[string]any{
			"weight": float64(500),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "500", record.Attributes["weight"])
	// Missing attribute paths are skipped, not stored as empty strings
	_, ok := record.Attributes["color"]
	assert.False(t, ok)
}

func TestExtractFromJSON(t *testing.T) {
	e := New()

	data := json.RawMessage(`{"offer_id": "OZ-3", "name": "  Кофе Jacobs 95г  "}`)

	record, err := e.RecordFromJSON(models.SourceOzon, data)
	require.NoError(t, err)

	assert.Equal(t, "OZ-3", record.ExternalSKU)
	assert.Equal(t, "Кофе Jacobs 95г", record.Name)

	_, err = e.RecordFromJSON(models.SourceOzon, json.RawMessage(`not json`))
	require.Error(t, err)
}

func TestParsePathSegments(t *testing.T) {
	parts := parsePath("offer.barcodes[0]")
	require.Len(t, parts, 2)

	assert.Equal(t, "offer", parts[0].key)
	assert.False(t, parts[0].isArray)

	assert.Equal(t, "barcodes", parts[1].key)
	assert.True(t, parts[1].isArray)
	assert.Equal(t, 0, parts[1].index)
}
