package agents

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProtocolData is the per-protocol snapshot consumed by the research and
// risk workflows.
type ProtocolData struct {
	Name              string
	Symbol            string
	Address           string
	TVLUSD            decimal.Decimal
	BaseYieldAPY      float64
	PriceChange30d    float64
	BaseRisk          float64
	SmartContractRisk float64
	LiquidityRisk     float64
	AuditStatus       string
}

// MarketData is the market-wide snapshot consumed by the risk workflow.
type MarketData struct {
	Volatility30d float64
	Correlation   float64
	TrendLabel    string
}

// AMLScreen is the anti-money-laundering screen result for an institution.
type AMLScreen struct {
	RiskScore      float64
	SanctionsClear bool
	Patterns       []string
}

// Clear reports whether the screen raises no blockers.
func (s AMLScreen) Clear() bool {
	return s.SanctionsClear && s.RiskScore < 0.5
}

// ProtocolDataProvider supplies protocol fundamentals. Implementations may
// back this with real market APIs or with seeded synthetic data.
type ProtocolDataProvider interface {
	Fetch(ctx context.Context, symbol string) (ProtocolData, error)
}

// MarketDataProvider supplies market-wide conditions.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol string) (MarketData, error)
}

// ComplianceRuleProvider supplies jurisdiction rules. The rule tables are
// injected configuration data, not engine logic.
type ComplianceRuleProvider interface {
	JurisdictionScores(ctx context.Context, protocol string) (map[string]float64, error)
	AMLScreen(ctx context.Context, institutionID string) (AMLScreen, error)
	RequiredJurisdictions(institutionID string) []string
}

// RandomnessSource produces synthetic variance. It must be seedable so
// synthetic computations are reproducible in tests.
type RandomnessSource interface {
	Float(lo, hi float64) float64
}
