package matching

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
)

// NewOrchestratorFromConfig assembles the full resolution pipeline from
// the service configuration: signal scorer, candidate matcher, score
// fusion, decision policy, orchestrator. The enricher may be nil.
// Threshold validation failures surface here, before any record is
// resolved.
func NewOrchestratorFromConfig(cfg config.Config, log ectologger.Logger, enricher Enricher) (*Orchestrator, error) {
	fusion, err := NewScoreFusion(DefaultFusionWeights())
	if err != nil {
		return nil, err
	}

	policy, err := NewDecisionPolicy(Thresholds{
		AutoAccept:   cfg.AutoAcceptThreshold,
		ManualReview: cfg.ManualReviewThreshold,
		AutoReject:   cfg.AutoRejectThreshold,
	})
	if err != nil {
		return nil, err
	}

	matcher := NewCandidateMatcher(log, NewSignalScorer(nil), MatcherConfig{
		RankWeights:    DefaultRankWeights(),
		EnableBlocking: cfg.BlockingEnabled,
		NGramSize:      3,
	})

	return NewOrchestrator(log, matcher, fusion, policy, enricher, OrchestratorConfig{
		Workers:       cfg.BatchWorkerCount,
		MaxCandidates: cfg.MaxCandidates,
	}), nil
}
