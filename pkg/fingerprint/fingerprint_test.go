package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	record := models.IncomingRecord{
		ExternalSKU: "OZ-123",
		Source:      models.SourceOzon,
		Barcode:     "4601234567890",
		Name:        "Молоко Простоквашино 1л",
		Brand:       "Простоквашино",
		Attributes:  map[string]string{"weight": "1000", "fat": "3.2"},
	}

	assert.Equal(t, Record(record), Record(record))
}

func TestFingerprintIgnoresAttributeOrder(t *testing.T) {
	a := models.IncomingRecord{
		ExternalSKU: "OZ-123",
		Source:      models.SourceOzon,
		Attributes:  map[string]string{"a": "1", "b": "2", "c": "3"},
	}
	b := models.IncomingRecord{
		ExternalSKU: "OZ-123",
		Source:      models.SourceOzon,
		Attributes:  map[string]string{"c": "3", "b": "2", "a": "1"},
	}

	assert.Equal(t, Record(a), Record(b))
}

func TestFingerprintChangesWithEveryField(t *testing.T) {
	base := models.IncomingRecord{
		ExternalSKU: "OZ-123",
		Source:      models.SourceOzon,
		Barcode:     "4601234567890",
		Name:        "Молоко",
		Brand:       "Простоквашино",
		Category:    "Молочные продукты",
	}

	cases := map[string]func(r *models.IncomingRecord){
		"sku":      func(r *models.IncomingRecord) { r.ExternalSKU = "OZ-124" },
		"source":   func(r *models.IncomingRecord) { r.Source = models.SourceWildberries },
		"barcode":  func(r *models.IncomingRecord) { r.Barcode = "4601234567891" },
		"name":     func(r *models.IncomingRecord) { r.Name = "Кефир" },
		"brand":    func(r *models.IncomingRecord) { r.Brand = "Домик в деревне" },
		"category": func(r *models.IncomingRecord) { r.Category = "Напитки" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			changed := base
			mutate(&changed)
			assert.True(t, HasChanged(Record(base), Record(changed)))
		})
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// "ab" + "c" must not collide with "a" + "bc"
	a := models.IncomingRecord{ExternalSKU: "ab", Source: models.Source("c")}
	b := models.IncomingRecord{ExternalSKU: "a", Source: models.Source("bc")}

	assert.NotEqual(t, Record(a), Record(b))
}

func TestHasChanged(t *testing.T) {
	assert.False(t, HasChanged("abc", "abc"))
	assert.True(t, HasChanged("abc", "abd"))
}
