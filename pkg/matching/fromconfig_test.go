package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestNewOrchestratorFromConfig(t *testing.T) {
	cfg := config.Config{
		AutoAcceptThreshold:   0.95,
		ManualReviewThreshold: 0.50,
		AutoRejectThreshold:   0.10,
		MaxCandidates:         2,
		BatchWorkerCount:      2,
		BlockingEnabled:       true,
	}

	o, err := NewOrchestratorFromConfig(cfg, noopLogger(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, o.cfg.Workers)
	assert.Equal(t, 2, o.cfg.MaxCandidates)
	assert.True(t, o.matcher.cfg.EnableBlocking)

	// The configured thresholds drive decisions: 0.92 clears the default
	// auto-accept band but not this one
	assert.Equal(t, models.DecisionManualReview, o.policy.Decide(0.92))
	assert.Equal(t, models.DecisionAutoAccept, o.policy.Decide(0.96))
	assert.Equal(t, models.DecisionAutoReject, o.policy.Decide(0.25))
	assert.Equal(t, models.DecisionCreateNew, o.policy.Decide(0.05))
}

func TestNewOrchestratorFromConfigAppliesCandidateCap(t *testing.T) {
	cfg := config.Config{
		AutoAcceptThreshold:   0.90,
		ManualReviewThreshold: 0.70,
		AutoRejectThreshold:   0.30,
		MaxCandidates:         1,
		BatchWorkerCount:      1,
	}

	o, err := NewOrchestratorFromConfig(cfg, noopLogger(), nil)
	require.NoError(t, err)

	record := models.IncomingRecord{
		Source: models.SourceOzon,
		Name:   "Молоко Простоквашино 1 литр",
		Brand:  "Простоквашино",
	}
	ranked, err := o.ResolveAll(context.Background(), record, milkPool(), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "m-1", ranked[0].Master.ID)
}

func TestNewOrchestratorFromConfigRejectsBadThresholds(t *testing.T) {
	cfg := config.Config{
		AutoAcceptThreshold:   0.50,
		ManualReviewThreshold: 0.70,
		AutoRejectThreshold:   0.30,
	}

	_, err := NewOrchestratorFromConfig(cfg, noopLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds")
}
