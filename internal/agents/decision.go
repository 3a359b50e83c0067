package agents

import (
	"fmt"
	"strings"

	"aegis/internal/adapters/config"
	"aegis/pkg/logger"
)

// DecisionEngine applies the fixed approval policy to the three analysis
// findings. Any of them may be a degraded neutral substitute, which is
// treated conservatively: it simply fails its predicate.
type DecisionEngine struct {
	cfg config.DecisionConfig
	log *logger.Logger
}

// NewDecisionEngine constructs the decision engine with its thresholds.
func NewDecisionEngine(cfg config.DecisionConfig) *DecisionEngine {
	return &DecisionEngine{
		cfg: cfg,
		log: logger.Get().With("component", "decision"),
	}
}

// Decide approves execution iff all three predicates hold: regulatory
// approval, risk score strictly under the ceiling, and minimum agent
// confidence strictly over the floor. A value exactly at a threshold
// does not pass.
func (d *DecisionEngine) Decide(research ResearchFindings, risk RiskFindings, compliance ComplianceFindings) ExecutionDecision {
	var issues []string

	if compliance.Overall != ComplianceApproved {
		issue := fmt.Sprintf("compliance status is %s", compliance.Overall)
		if failed := compliance.failedJurisdictions(); len(failed) > 0 {
			issue += fmt.Sprintf(" (non-compliant jurisdictions: %s)", strings.Join(failed, ", "))
		}
		if !compliance.AMLClear {
			issue += fmt.Sprintf(" (AML screen not clear, risk score %.2f)", compliance.AMLRiskScore)
		}
		issues = append(issues, issue)
	}

	if risk.RiskScore >= d.cfg.MaxRiskScore {
		issues = append(issues, fmt.Sprintf("risk score %.2f at or above limit %.2f",
			risk.RiskScore, d.cfg.MaxRiskScore))
	}

	minConfidence := research.Confidence()
	if risk.Confidence() < minConfidence {
		minConfidence = risk.Confidence()
	}
	if compliance.Confidence() < minConfidence {
		minConfidence = compliance.Confidence()
	}
	if minConfidence <= d.cfg.MinConfidence {
		issues = append(issues, fmt.Sprintf("minimum agent confidence %.2f at or below floor %.2f",
			minConfidence, d.cfg.MinConfidence))
	}

	if len(issues) > 0 {
		d.log.Infof("Decision: REQUIRES_REVIEW (%d blocking issues)", len(issues))
		return ExecutionDecision{
			Outcome:        DecisionReview,
			Reason:         "One or more approval predicates failed",
			BlockingIssues: issues,
		}
	}

	d.log.Infof("Decision: APPROVED_FOR_EXECUTION (risk %.2f, min confidence %.2f)",
		risk.RiskScore, minConfidence)
	return ExecutionDecision{
		Outcome: DecisionApproved,
		Reason: fmt.Sprintf("Full regulatory approval, %s risk (%.2f), minimum confidence %.2f",
			risk.RiskLevel, risk.RiskScore, minConfidence),
	}
}
