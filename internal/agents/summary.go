package agents

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// keyFindingsLimit caps how many findings entries make the final report.
const keyFindingsLimit = 3

// buildSummary folds the registry, bus and ledger into the immutable
// per-request report returned to the caller.
func (e *Engine) buildSummary(plan *TaskPlan, decision ExecutionDecision, risk RiskFindings, compliance ComplianceFindings, execution ExecutionResult, started time.Time, cancelled bool) *SummaryReport {
	snapshot := e.registry.Snapshot()

	completed := 0
	performance := make(map[AgentID]AgentPerformance, len(snapshot))
	for id, state := range snapshot {
		if state.Status == StatusCompleted {
			completed++
		}
		performance[id] = AgentPerformance{
			Status:      state.Status,
			Confidence:  state.ConfidenceLevel,
			KeyFindings: keyFindings(state.Findings),
		}
	}

	return &SummaryReport{
		RequestID:             plan.RequestID,
		OriginalRequest:       plan.Request,
		InstitutionID:         plan.InstitutionID,
		Protocol:              plan.Protocol,
		Priority:              plan.Priority,
		EstimatedTime:         plan.EstimatedTime,
		ExecutionTime:         fmt.Sprintf("%.1f seconds", time.Since(started).Seconds()),
		AgentsDeployed:        len(AllAgents),
		AgentsCompleted:       completed,
		CollaborationMessages: e.bus.Len(),
		LedgerEntries:         e.ledger.Len(),
		FinalDecision:         decision,
		FinancialImpact: FinancialImpact{
			InvestmentAmount:     dollars(plan.AmountUSD),
			EstimatedAnnualYield: dollars(execution.AnnualYieldUSD),
			RiskLevel:            string(risk.RiskLevel),
			ComplianceStatus:     string(compliance.Overall),
		},
		AgentPerformance: performance,
		Cancelled:        cancelled,
	}
}

// keyFindings picks the first few findings entries in stable key order.
func keyFindings(findings map[string]interface{}) []string {
	keys := make([]string, 0, len(findings))
	for k := range findings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > keyFindingsLimit {
		keys = keys[:keyFindingsLimit]
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %v", k, findings[k]))
	}
	return out
}

// dollars renders a decimal amount as a grouped dollar figure, e.g.
// "$500,000,000".
func dollars(amount decimal.Decimal) string {
	return "$" + humanize.Comma(amount.Round(0).IntPart())
}
