package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase and trim", "  Молоко Простоквашино  ", "молоко простоквашино"},
		{"punctuation to space", "Молоко,1л", "молоко 1л"},
		{"collapse whitespace", "Молоко   Простоквашино\t1л", "молоко простоквашино 1л"},
		{"latin", "Coca-Cola Zero 0.5L", "coca cola zero 0 5l"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProductName(tt.input))
		})
	}
}

func TestBarcode(t *testing.T) {
	t.Run("strips separators", func(t *testing.T) {
		assert.Equal(t, "4600699501022", Barcode("4-600699-501022"))
	})

	t.Run("too short is absent", func(t *testing.T) {
		assert.Equal(t, "", Barcode("1234567"))
	})

	t.Run("too long is absent", func(t *testing.T) {
		assert.Equal(t, "", Barcode("123456789012345"))
	})

	t.Run("ean8 accepted", func(t *testing.T) {
		assert.Equal(t, "12345678", Barcode("12345678"))
	})
}

func TestBrand(t *testing.T) {
	assert.Equal(t, "простоквашино", Brand(" Простоквашино "))
	assert.Equal(t, "coca cola", Brand("Coca  Cola"))
}

func TestRegistry(t *testing.T) {
	t.Run("apply known normalizer", func(t *testing.T) {
		assert.Equal(t, "abc", Apply("ABC", "lowercase"))
	})

	t.Run("unknown normalizer is identity", func(t *testing.T) {
		assert.Equal(t, "ABC", Apply("ABC", "nope"))
	})

	t.Run("chain", func(t *testing.T) {
		assert.Equal(t, "молоко 1л", ApplyChain("  Молоко,1л ", "lowercase", "remove_punctuation", "collapse_whitespace"))
	})
}
