package agents

import (
	"context"
	"fmt"
)

// Sentiment boundaries on 30-day price change, in percent.
const (
	bullishAbove = 2.0
	bearishBelow = -2.0
)

// runResearchWorkflow drives the research agent: protocol data gathering,
// market analysis, finding synthesis, one findings report to the
// coordinator.
func (e *Engine) runResearchWorkflow(ctx context.Context, plan *TaskPlan) (Findings, error) {
	id := AgentResearch

	if err := e.registry.UpdateStatus(id, StatusResearching, "Gathering protocol data"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Fetching DeFi protocol metrics...", 30); err != nil {
		return nil, err
	}

	data, err := e.fetchProtocolData(ctx, plan.Protocol.Symbol)
	degraded := err != nil
	if degraded {
		e.log.Warnf("Research data fetch degraded: %v", err)
	}

	if err := e.registry.UpdateStatus(id, StatusAnalyzing, "Analyzing market conditions"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Processing TVL trends and yield curves...", 60); err != nil {
		return nil, err
	}

	findings := synthesizeResearch(data, degraded)

	if err := e.registry.SetFindings(id, findings); err != nil {
		return nil, err
	}

	e.bus.Post(id, AgentCoordinator, "findings_report",
		fmt.Sprintf("Research complete: %s health %.2f, sentiment %s, est. yield %.1f%% APY",
			plan.Protocol.Name, findings.ProtocolHealth, findings.Sentiment, findings.YieldEstimate),
		findings.Metrics())

	if err := e.registry.UpdateStatus(id, StatusCompleted, "Research analysis complete"); err != nil {
		return nil, err
	}
	return findings, nil
}

// synthesizeResearch turns raw protocol data into research findings.
// Health is a bounded score driven by the recent price change; confidence
// grows with health.
func synthesizeResearch(data ProtocolData, degraded bool) ResearchFindings {
	if degraded {
		return neutralResearchFindings()
	}

	health := clamp(0.70+data.PriceChange30d/50, 0.30, 0.99)

	sentiment := "neutral"
	switch {
	case data.PriceChange30d > bullishAbove:
		sentiment = "bullish"
	case data.PriceChange30d < bearishBelow:
		sentiment = "bearish"
	}

	tvl, _ := data.TVLUSD.Float64()

	return ResearchFindings{
		ProtocolHealth:  health,
		YieldEstimate:   data.BaseYieldAPY,
		Sentiment:       sentiment,
		PriceChange30d:  data.PriceChange30d,
		TVLUSD:          tvl,
		ConfidenceScore: clamp(0.55+0.40*health, 0, 0.99),
	}
}

// neutralResearchFindings is the degraded substitute when protocol data
// is unavailable. Conservative enough to fail the confidence predicate.
func neutralResearchFindings() ResearchFindings {
	return ResearchFindings{
		ProtocolHealth:  0.50,
		YieldEstimate:   0,
		Sentiment:       "neutral",
		ConfidenceScore: 0.50,
		Degraded:        true,
	}
}
