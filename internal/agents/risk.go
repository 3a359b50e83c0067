package agents

import (
	"context"
	"fmt"
)

// Risk score component weights. Protocol-specific components are scaled
// by the investment-size multiplier before weighting; market components
// are not.
const (
	weightBaseRisk      = 0.30
	weightContractRisk  = 0.25
	weightLiquidityRisk = 0.20
	weightVolatility    = 0.15
	weightCorrelation   = 0.10
)

// Risk level bucket boundaries.
const (
	riskLowBelow    = 0.25
	riskMediumBelow = 0.40
)

// sizeMultipliers scale protocol risk with the size of the position:
// a $2B ticket concentrates more exposure than a $50M one.
var sizeMultipliers = map[TaskPriority]float64{
	PriorityLow:      1.00,
	PriorityMedium:   1.05,
	PriorityHigh:     1.15,
	PriorityCritical: 1.25,
}

// runRiskWorkflow drives the risk agent: model initialization, scenario
// analysis, weighted scoring, one consultation message to the regulatory
// agent.
func (e *Engine) runRiskWorkflow(ctx context.Context, plan *TaskPlan) (Findings, error) {
	id := AgentRisk

	if err := e.registry.UpdateStatus(id, StatusAnalyzing, "Initializing risk models"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Loading institutional risk parameters...", 20); err != nil {
		return nil, err
	}

	protocol, protoErr := e.fetchProtocolData(ctx, plan.Protocol.Symbol)
	market, marketErr := e.fetchMarketData(ctx, plan.Protocol.Symbol)
	degraded := protoErr != nil || marketErr != nil
	if degraded {
		e.log.Warnf("Risk data fetch degraded: protocol=%v market=%v", protoErr, marketErr)
	}

	if err := e.registry.UpdateStatus(id, StatusAnalyzing, "Running risk scenarios"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Stress testing against market volatility...", 70); err != nil {
		return nil, err
	}

	findings := synthesizeRisk(protocol, market, plan.Priority, degraded)

	if err := e.registry.SetFindings(id, findings); err != nil {
		return nil, err
	}

	e.bus.Post(id, AgentRegulatory, "risk_consultation",
		fmt.Sprintf("Risk analysis: %s risk profile (score %.2f). Max exposure %.0f%%. Need regulatory confirmation.",
			findings.RiskLevel, findings.RiskScore, findings.MaxExposurePct),
		findings.Metrics())

	if err := e.registry.UpdateStatus(id, StatusCompleted, "Risk analysis complete"); err != nil {
		return nil, err
	}
	return findings, nil
}

// synthesizeRisk computes the weighted overall risk score and derives the
// level bucket and the recommended maximum exposure.
func synthesizeRisk(protocol ProtocolData, market MarketData, priority TaskPriority, degraded bool) RiskFindings {
	if degraded {
		return neutralRiskFindings()
	}

	multiplier, ok := sizeMultipliers[priority]
	if !ok {
		multiplier = 1.0
	}

	protocolComponent := multiplier * (weightBaseRisk*protocol.BaseRisk +
		weightContractRisk*protocol.SmartContractRisk +
		weightLiquidityRisk*protocol.LiquidityRisk)
	marketComponent := weightVolatility*market.Volatility30d + weightCorrelation*market.Correlation

	score := clamp(protocolComponent+marketComponent, 0, 1)

	return RiskFindings{
		RiskScore: score,
		RiskLevel: riskLevelFor(score),
		Breakdown: map[string]float64{
			"base_risk":           protocol.BaseRisk,
			"smart_contract_risk": protocol.SmartContractRisk,
			"liquidity_risk":      protocol.LiquidityRisk,
			"market_volatility":   market.Volatility30d,
			"market_correlation":  market.Correlation,
			"size_multiplier":     multiplier,
		},
		MaxExposurePct:  maxExposureFor(score),
		ConfidenceScore: clamp(0.95-market.Volatility30d/2, 0.50, 0.95),
	}
}

func riskLevelFor(score float64) RiskLevel {
	switch {
	case score < riskLowBelow:
		return RiskLow
	case score < riskMediumBelow:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// maxExposureFor recommends a portfolio exposure ceiling inversely related
// to the risk score.
func maxExposureFor(score float64) float64 {
	switch {
	case score <= 0.20:
		return 25.0
	case score <= 0.40:
		return 15.0
	case score <= 0.60:
		return 5.0
	default:
		return 0.0
	}
}

// neutralRiskFindings is the conservative substitute when market or
// protocol data is unavailable: mid-scale risk that fails the approval
// predicate.
func neutralRiskFindings() RiskFindings {
	return RiskFindings{
		RiskScore:       0.50,
		RiskLevel:       RiskHigh,
		Breakdown:       map[string]float64{},
		MaxExposurePct:  0,
		ConfidenceScore: 0.50,
		Degraded:        true,
	}
}
