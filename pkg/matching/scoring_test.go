package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorerLevenshtein(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Levenshtein("молоко", "молоко"))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Levenshtein("", ""))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Levenshtein("", "abc"))
	})

	t.Run("single substitution in cyrillic", func(t *testing.T) {
		// distance is measured in runes, not bytes
		assert.InDelta(t, 1.0-1.0/3.0, s.Levenshtein("кот", "кит"), 1e-9)
	})

	t.Run("distance", func(t *testing.T) {
		assert.Equal(t, 3, s.LevenshteinDistance("kitten", "sitting"))
		assert.Equal(t, 4, s.LevenshteinDistance("1л", "1 литр"))
	})
}

func TestScorerExactMatch(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.ExactMatch("Простоквашино", "простоквашино", false))
	assert.Equal(t, 0.0, s.ExactMatch("Простоквашино", "простоквашино", true))
}

func TestScorerWeightedScore(t *testing.T) {
	s := NewScorer()

	t.Run("weighted average", func(t *testing.T) {
		scores := map[string]float64{"a": 1.0, "b": 0.5}
		weights := map[string]float64{"a": 3.0, "b": 1.0}
		assert.InDelta(t, (3.0+0.5)/4.0, s.WeightedScore(scores, weights), 1e-9)
	})

	t.Run("missing weight defaults to 1", func(t *testing.T) {
		scores := map[string]float64{"a": 0.8}
		assert.InDelta(t, 0.8, s.WeightedScore(scores, nil), 1e-9)
	})

	t.Run("no scores", func(t *testing.T) {
		assert.Equal(t, 0.0, s.WeightedScore(nil, nil))
	})
}
