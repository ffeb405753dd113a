package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// DecisionPolicy maps a fused confidence to a decision. It is a pure
// function of confidence; thresholds are validated at construction.
type DecisionPolicy struct {
	thresholds Thresholds
}

// NewDecisionPolicy creates a decision policy with validated thresholds
func NewDecisionPolicy(thresholds Thresholds) (*DecisionPolicy, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &DecisionPolicy{thresholds: thresholds}, nil
}

// Decide maps confidence to a decision
func (p *DecisionPolicy) Decide(confidence float64) models.Decision {
	switch {
	case confidence >= p.thresholds.AutoAccept:
		return models.DecisionAutoAccept
	case confidence >= p.thresholds.ManualReview:
		return models.DecisionManualReview
	case confidence >= p.thresholds.AutoReject:
		return models.DecisionAutoReject
	default:
		return models.DecisionCreateNew
	}
}

// Thresholds returns the configured thresholds
func (p *DecisionPolicy) Thresholds() Thresholds {
	return p.thresholds
}
