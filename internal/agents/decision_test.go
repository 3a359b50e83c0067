package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/adapters/config"
)

func testDecisionConfig() config.DecisionConfig {
	return config.DecisionConfig{
		MaxRiskScore:         0.35,
		MinConfidence:        0.75,
		MinJurisdictionScore: 0.85,
	}
}

func passingFindings() (ResearchFindings, RiskFindings, ComplianceFindings) {
	research := ResearchFindings{
		ProtocolHealth:  0.85,
		Sentiment:       "bullish",
		ConfidenceScore: 0.88,
	}
	risk := RiskFindings{
		RiskScore:       0.20,
		RiskLevel:       RiskLow,
		ConfidenceScore: 0.90,
	}
	compliance := ComplianceFindings{
		Overall: ComplianceApproved,
		Jurisdictions: map[string]JurisdictionStatus{
			"SEC_US": {Score: 0.92, Compliant: true},
		},
		AMLClear:        true,
		ConfidenceScore: 0.92,
	}
	return research, risk, compliance
}

func TestDecide_AllPredicatesPass(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())
	research, risk, compliance := passingFindings()

	decision := d.Decide(research, risk, compliance)

	assert.Equal(t, DecisionApproved, decision.Outcome)
	assert.True(t, decision.Approved())
	assert.Empty(t, decision.BlockingIssues)
}

func TestDecide_RiskBoundaryIsStrict(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())
	research, risk, compliance := passingFindings()

	// Exactly at the ceiling must fail.
	risk.RiskScore = 0.35
	decision := d.Decide(research, risk, compliance)
	require.Equal(t, DecisionReview, decision.Outcome)
	assert.Contains(t, strings.Join(decision.BlockingIssues, "; "), "risk score")

	// Just under passes.
	risk.RiskScore = 0.3499
	decision = d.Decide(research, risk, compliance)
	assert.Equal(t, DecisionApproved, decision.Outcome)
}

func TestDecide_ConfidenceBoundaryIsStrict(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())
	research, risk, compliance := passingFindings()

	// Minimum across agents exactly at the floor must fail.
	risk.ConfidenceScore = 0.75
	decision := d.Decide(research, risk, compliance)
	require.Equal(t, DecisionReview, decision.Outcome)
	assert.Contains(t, strings.Join(decision.BlockingIssues, "; "), "confidence")

	risk.ConfidenceScore = 0.7501
	decision = d.Decide(research, risk, compliance)
	assert.Equal(t, DecisionApproved, decision.Outcome)
}

func TestDecide_ComplianceReviewBlocks(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())
	research, risk, compliance := passingFindings()

	compliance.Overall = ComplianceReview
	compliance.Jurisdictions["SEC_US"] = JurisdictionStatus{Score: 0.70, Compliant: false}

	decision := d.Decide(research, risk, compliance)
	require.Equal(t, DecisionReview, decision.Outcome)

	joined := strings.Join(decision.BlockingIssues, "; ")
	assert.Contains(t, joined, "REQUIRES_REVIEW")
	assert.Contains(t, joined, "SEC_US")
}

func TestDecide_MultipleIssuesAccumulate(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())
	research, risk, compliance := passingFindings()

	compliance.Overall = ComplianceReview
	risk.RiskScore = 0.60
	research.ConfidenceScore = 0.50

	decision := d.Decide(research, risk, compliance)
	require.Equal(t, DecisionReview, decision.Outcome)
	assert.Len(t, decision.BlockingIssues, 3)
}

func TestDecide_NeutralSubstitutesFail(t *testing.T) {
	d := NewDecisionEngine(testDecisionConfig())

	decision := d.Decide(neutralResearchFindings(), neutralRiskFindings(),
		neutralComplianceFindings([]string{"SEC_US", "FCA_UK"}))

	assert.Equal(t, DecisionReview, decision.Outcome)
	assert.NotEmpty(t, decision.BlockingIssues)
}

func TestSynthesizeCompliance_InclusiveBoundary(t *testing.T) {
	required := []string{"SEC_US", "FCA_UK"}
	scores := map[string]float64{"SEC_US": 0.85, "FCA_UK": 0.90}
	screen := AMLScreen{RiskScore: 0.05, SanctionsClear: true}

	findings := synthesizeCompliance(required, scores, screen, 0.85, false)

	// A score exactly at the minimum is compliant.
	assert.True(t, findings.Jurisdictions["SEC_US"].Compliant)
	assert.Equal(t, ComplianceApproved, findings.Overall)
}

func TestSynthesizeCompliance_MissingJurisdictionFails(t *testing.T) {
	required := []string{"SEC_US", "FSA_JAPAN"}
	scores := map[string]float64{"SEC_US": 0.95}
	screen := AMLScreen{RiskScore: 0.05, SanctionsClear: true}

	findings := synthesizeCompliance(required, scores, screen, 0.85, false)

	assert.False(t, findings.Jurisdictions["FSA_JAPAN"].Compliant)
	assert.Equal(t, ComplianceReview, findings.Overall)
}

func TestSynthesizeCompliance_AMLBlocks(t *testing.T) {
	required := []string{"SEC_US"}
	scores := map[string]float64{"SEC_US": 0.95}

	screen := AMLScreen{RiskScore: 0.60, SanctionsClear: true}
	findings := synthesizeCompliance(required, scores, screen, 0.85, false)
	assert.Equal(t, ComplianceReview, findings.Overall)

	screen = AMLScreen{RiskScore: 0.05, SanctionsClear: false}
	findings = synthesizeCompliance(required, scores, screen, 0.85, false)
	assert.Equal(t, ComplianceReview, findings.Overall)
}

func TestSynthesizeRisk_Weights(t *testing.T) {
	protocol := ProtocolData{
		BaseRisk:          0.20,
		SmartContractRisk: 0.10,
		LiquidityRisk:     0.10,
	}
	market := MarketData{Volatility30d: 0.20, Correlation: 0.40}

	findings := synthesizeRisk(protocol, market, PriorityLow, false)

	// 1.0*(0.30*0.20 + 0.25*0.10 + 0.20*0.10) + 0.15*0.20 + 0.10*0.40
	want := 0.06 + 0.025 + 0.02 + 0.03 + 0.04
	assert.InDelta(t, want, findings.RiskScore, 1e-9)
	assert.Equal(t, RiskLow, findings.RiskLevel)
}

func TestSynthesizeRisk_SizeMultiplierRaisesScore(t *testing.T) {
	protocol := ProtocolData{BaseRisk: 0.30, SmartContractRisk: 0.20, LiquidityRisk: 0.20}
	market := MarketData{Volatility30d: 0.10, Correlation: 0.20}

	low := synthesizeRisk(protocol, market, PriorityLow, false)
	critical := synthesizeRisk(protocol, market, PriorityCritical, false)

	assert.Greater(t, critical.RiskScore, low.RiskScore)
}

func TestSynthesizeResearch_Sentiment(t *testing.T) {
	bullish := synthesizeResearch(ProtocolData{PriceChange30d: 5.0}, false)
	assert.Equal(t, "bullish", bullish.Sentiment)

	bearish := synthesizeResearch(ProtocolData{PriceChange30d: -5.0}, false)
	assert.Equal(t, "bearish", bearish.Sentiment)

	neutral := synthesizeResearch(ProtocolData{PriceChange30d: 1.0}, false)
	assert.Equal(t, "neutral", neutral.Sentiment)
}

func TestSynthesizeResearch_HealthClamped(t *testing.T) {
	crash := synthesizeResearch(ProtocolData{PriceChange30d: -80}, false)
	assert.Equal(t, 0.30, crash.ProtocolHealth)

	moon := synthesizeResearch(ProtocolData{PriceChange30d: 80}, false)
	assert.Equal(t, 0.99, moon.ProtocolHealth)
}
