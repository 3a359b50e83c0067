package agents

import (
	"context"
	"fmt"
)

// runDebate is the coordinator-moderated collaboration round that follows
// the parallel analysis. Every message is derived from the actual findings
// so the log reads as a real exchange, in a fixed order with a pause
// between turns.
func (e *Engine) runDebate(ctx context.Context, plan *TaskPlan, research ResearchFindings, risk RiskFindings, compliance ComplianceFindings) error {
	if err := e.registry.UpdateStatus(AgentCoordinator, StatusCollaborating, "Facilitating agent debate"); err != nil {
		return err
	}

	turns := []struct {
		from, to AgentID
		msgType  string
		content  string
		data     map[string]interface{}
	}{
		{
			AgentResearch, AgentRisk, "findings_share",
			fmt.Sprintf("%s shows %s momentum: health %.2f, 30d change %+.1f%%. Yield estimate %.1f%% APY.",
				plan.Protocol.Name, research.Sentiment, research.ProtocolHealth,
				research.PriceChange30d, research.YieldEstimate),
			research.Metrics(),
		},
		{
			AgentRisk, AgentResearch, "risk_concern",
			fmt.Sprintf("Acknowledged, but overall risk is %s (%.2f). Recommend capping exposure at %.0f%% of portfolio.",
				risk.RiskLevel, risk.RiskScore, risk.MaxExposurePct),
			risk.Metrics(),
		},
		{
			AgentRegulatory, AgentRisk, "compliance_confirmation",
			fmt.Sprintf("Compliance verdict: %s across %d jurisdictions, AML clear: %t.",
				compliance.Overall, len(compliance.Jurisdictions), compliance.AMLClear),
			compliance.Metrics(),
		},
		{
			AgentCoordinator, AgentBroadcast, "decision_synthesis",
			fmt.Sprintf("Debate concluded. Synthesizing decision from research (%.2f), risk (%.2f) and compliance (%.2f) confidence.",
				research.Confidence(), risk.Confidence(), compliance.Confidence()),
			nil,
		},
	}

	for _, turn := range turns {
		if err := e.pause(ctx, e.cfg.DebatePause); err != nil {
			return err
		}
		e.bus.Post(turn.from, turn.to, turn.msgType, turn.content, turn.data)
	}
	return nil
}
