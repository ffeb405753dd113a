package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestDecisionPolicyBands(t *testing.T) {
	policy, err := NewDecisionPolicy(DefaultThresholds())
	require.NoError(t, err)

	tests := []struct {
		name       string
		confidence float64
		expected   models.Decision
	}{
		{"perfect score", 1.0, models.DecisionAutoAccept},
		{"accept boundary is inclusive", 0.90, models.DecisionAutoAccept},
		{"just below accept", 0.8999, models.DecisionManualReview},
		{"review boundary is inclusive", 0.70, models.DecisionManualReview},
		{"just below review", 0.6999, models.DecisionAutoReject},
		{"reject boundary is inclusive", 0.30, models.DecisionAutoReject},
		{"just below reject", 0.2999, models.DecisionCreateNew},
		{"zero score", 0.0, models.DecisionCreateNew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Decide(tt.confidence))
		})
	}
}

func TestDecisionPolicyCustomThresholds(t *testing.T) {
	policy, err := NewDecisionPolicy(Thresholds{AutoAccept: 0.95, ManualReview: 0.5, AutoReject: 0.1})
	require.NoError(t, err)

	assert.Equal(t, models.DecisionManualReview, policy.Decide(0.90))
	assert.Equal(t, models.DecisionAutoReject, policy.Decide(0.45))
	assert.Equal(t, models.DecisionCreateNew, policy.Decide(0.05))
}

func TestDecisionPolicyInvalidThresholds(t *testing.T) {
	tests := []struct {
		name       string
		thresholds Thresholds
	}{
		{"review above accept", Thresholds{AutoAccept: 0.8, ManualReview: 0.9, AutoReject: 0.3}},
		{"reject above review", Thresholds{AutoAccept: 0.9, ManualReview: 0.5, AutoReject: 0.6}},
		{"accept above one", Thresholds{AutoAccept: 1.5, ManualReview: 0.7, AutoReject: 0.3}},
		{"negative reject", Thresholds{AutoAccept: 0.9, ManualReview: 0.7, AutoReject: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecisionPolicy(tt.thresholds)
			assert.Error(t, err)
		})
	}
}

func TestDecisionPolicyDeterminism(t *testing.T) {
	policy, err := NewDecisionPolicy(DefaultThresholds())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.Equal(t, models.DecisionManualReview, policy.Decide(0.878))
	}
}
