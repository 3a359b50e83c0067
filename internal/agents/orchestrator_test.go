package agents

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/adapters/config"
	"aegis/pkg/errors"
)

// Stub providers with deterministic data tuned so every approval
// predicate passes unless a test injects a failure.

type stubProtocols struct {
	data ProtocolData
	err  error
}

func (s *stubProtocols) Fetch(context.Context, string) (ProtocolData, error) {
	return s.data, s.err
}

type stubMarket struct {
	data MarketData
	err  error
}

func (s *stubMarket) Fetch(context.Context, string) (MarketData, error) {
	return s.data, s.err
}

type stubCompliance struct {
	scores    map[string]float64
	screen    AMLScreen
	required  []string
	scoresErr error
	screenErr error
}

func (s *stubCompliance) JurisdictionScores(context.Context, string) (map[string]float64, error) {
	return s.scores, s.scoresErr
}

func (s *stubCompliance) AMLScreen(context.Context, string) (AMLScreen, error) {
	return s.screen, s.screenErr
}

func (s *stubCompliance) RequiredJurisdictions(string) []string {
	return s.required
}

type stubRandom struct{}

func (stubRandom) Float(lo, hi float64) float64 { return (lo + hi) / 2 }

func healthyDeps() Deps {
	return Deps{
		Protocols: &stubProtocols{data: ProtocolData{
			Name: "Aave V2", Symbol: "aave",
			TVLUSD:            decimal.NewFromInt(6_200_000_000),
			BaseYieldAPY:      8.3,
			PriceChange30d:    4.0,
			BaseRisk:          0.10,
			SmartContractRisk: 0.08,
			LiquidityRisk:     0.06,
		}},
		Market: &stubMarket{data: MarketData{
			Volatility30d: 0.12,
			Correlation:   0.30,
		}},
		Compliance: &stubCompliance{
			scores: map[string]float64{
				"SEC_US": 0.92, "FCA_UK": 0.94, "MiCA_EU": 0.96, "FSA_JAPAN": 0.90,
			},
			screen:   AMLScreen{RiskScore: 0.05, SanctionsClear: true},
			required: []string{"SEC_US", "FCA_UK", "MiCA_EU", "FSA_JAPAN"},
		},
		Random: stubRandom{},
	}
}

func testEngine(deps Deps) *Engine {
	return NewEngine(config.EngineConfig{
		ProgressSteps: 2,
		StepPause:     time.Millisecond,
		DebatePause:   time.Millisecond,
		FetchTimeout:  time.Second,
	}, config.DecisionConfig{
		MaxRiskScore:         0.35,
		MinConfidence:        0.75,
		MinJurisdictionScore: 0.85,
	}, deps)
}

func TestProcess_EndToEndApproval(t *testing.T) {
	engine := testEngine(healthyDeps())

	summary, err := engine.ProcessInstitutionalRequest(context.Background(),
		"JPMorgan Chase wants to invest $500M in Aave protocol for institutional yield",
		"jpmorgan_chase_001")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, DecisionApproved, summary.FinalDecision.Outcome)
	assert.Equal(t, PriorityHigh, summary.Priority)
	assert.Equal(t, "90 seconds", summary.EstimatedTime)
	assert.Equal(t, "aave", summary.Protocol.Symbol)
	assert.Equal(t, 5, summary.AgentsDeployed)
	assert.Equal(t, 5, summary.AgentsCompleted)
	assert.Equal(t, 2, summary.LedgerEntries)
	assert.False(t, summary.Cancelled)

	assert.Equal(t, "$500,000,000", summary.FinancialImpact.InvestmentAmount)
	assert.Equal(t, "APPROVED", summary.FinancialImpact.ComplianceStatus)
	assert.Equal(t, "LOW", summary.FinancialImpact.RiskLevel)
	assert.NotEqual(t, "$0", summary.FinancialImpact.EstimatedAnnualYield)

	// task_delegation + 3 analysis reports + 4 debate turns + execution_complete
	assert.Equal(t, 9, summary.CollaborationMessages)

	for _, id := range AllAgents {
		perf, ok := summary.AgentPerformance[id]
		require.Truef(t, ok, "performance entry missing for %s", id)
		assert.Equalf(t, StatusCompleted, perf.Status, "agent %s", id)
	}
}

func TestProcess_FinalProgressTargets(t *testing.T) {
	engine := testEngine(healthyDeps())

	_, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)

	targets := map[AgentID]float64{
		AgentResearch:   60,
		AgentRisk:       70,
		AgentRegulatory: 80,
		AgentExecution:  90,
	}
	for id, want := range targets {
		state, err := engine.Registry().Get(id)
		require.NoError(t, err)
		assert.Equalf(t, want, state.Progress, "agent %s final progress", id)
	}
}

func TestProcess_DegradedRiskBlocksExecution(t *testing.T) {
	deps := healthyDeps()
	deps.Market = &stubMarket{err: errors.New("market feed down")}
	engine := testEngine(deps)

	summary, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)

	assert.Equal(t, DecisionReview, summary.FinalDecision.Outcome)
	assert.Equal(t, 0, summary.LedgerEntries)

	joined := strings.Join(summary.FinalDecision.BlockingIssues, "; ")
	assert.Contains(t, joined, "risk score")

	// A degraded data fetch must not fail the workflow itself.
	state, _ := engine.Registry().Get(AgentRisk)
	assert.Equal(t, StatusCompleted, state.Status)

	// Independent workflows keep their own findings.
	research, _ := engine.Registry().Get(AgentResearch)
	assert.Equal(t, StatusCompleted, research.Status)
	assert.Greater(t, research.ConfidenceLevel, 0.75)
}

// panicMarket blows up inside the risk workflow goroutine.
type panicMarket struct{}

func (panicMarket) Fetch(context.Context, string) (MarketData, error) {
	panic("market feed corrupted")
}

func TestProcess_RiskWorkflowFailureIsIsolated(t *testing.T) {
	deps := healthyDeps()
	deps.Market = panicMarket{}
	engine := testEngine(deps)

	summary, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)

	// The failing workflow is marked FAILED; the other two finish.
	risk, _ := engine.Registry().Get(AgentRisk)
	assert.Equal(t, StatusFailed, risk.Status)
	research, _ := engine.Registry().Get(AgentResearch)
	assert.Equal(t, StatusCompleted, research.Status)
	regulatory, _ := engine.Registry().Get(AgentRegulatory)
	assert.Equal(t, StatusCompleted, regulatory.Status)

	// The neutral risk substitute fails the approval predicates.
	assert.Equal(t, DecisionReview, summary.FinalDecision.Outcome)
	assert.Contains(t, strings.Join(summary.FinalDecision.BlockingIssues, "; "), "risk score")
	assert.Equal(t, 0, summary.LedgerEntries)
}

func TestProcess_ProgressIsMonotonic(t *testing.T) {
	engine := testEngine(healthyDeps())

	stop := make(chan struct{})
	violation := make(chan string, 1)
	go func() {
		last := map[AgentID]float64{}
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				for id, state := range engine.Registry().Snapshot() {
					if state.Progress < last[id] {
						select {
						case violation <- fmt.Sprintf("agent %s progress went %f -> %f",
							id, last[id], state.Progress):
						default:
						}
					}
					last[id] = state.Progress
				}
			}
		}
	}()

	_, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	close(stop)
	require.NoError(t, err)

	select {
	case v := <-violation:
		t.Error(v)
	default:
	}
}

func TestProcess_UnknownInstitutionRequiresReview(t *testing.T) {
	deps := healthyDeps()
	deps.Compliance = &stubCompliance{
		scores:   map[string]float64{"SEC_US": 0.92},
		screen:   AMLScreen{RiskScore: 0.70, SanctionsClear: true},
		required: []string{"SEC_US"},
	}
	engine := testEngine(deps)

	summary, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $200M in Compound", "shell_company_042")
	require.NoError(t, err)

	assert.Equal(t, DecisionReview, summary.FinalDecision.Outcome)
	assert.Equal(t, "REQUIRES_REVIEW", summary.FinancialImpact.ComplianceStatus)
}

func TestProcess_EmptyRequestFallsBackToDefaults(t *testing.T) {
	engine := testEngine(healthyDeps())

	summary, err := engine.ProcessInstitutionalRequest(context.Background(), "", "jpmorgan_chase_001")
	require.NoError(t, err)
	require.NotNil(t, summary)

	// The extreme unparseable input still resolves to the documented
	// defaults and runs the full pipeline.
	assert.Equal(t, "aave", summary.Protocol.Symbol)
	assert.Equal(t, "$100,000,000", summary.FinancialImpact.InvestmentAmount)
	assert.Equal(t, PriorityLow, summary.Priority)
	assert.Equal(t, "60 seconds", summary.EstimatedTime)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, 5, summary.AgentsCompleted)
}

func TestProcess_Cancellation(t *testing.T) {
	engine := testEngine(healthyDeps())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := engine.ProcessInstitutionalRequest(ctx, "Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, DecisionReview, summary.FinalDecision.Outcome)
	assert.Equal(t, 0, summary.LedgerEntries)

	// No agent may be left mid-flight.
	for id, state := range engine.Registry().Snapshot() {
		assert.Truef(t, state.Status.Terminal(), "agent %s left in %s", id, state.Status)
	}
}

func TestProcess_SecondRequestConflicts(t *testing.T) {
	engine := NewEngine(config.EngineConfig{
		ProgressSteps: 2,
		StepPause:     30 * time.Millisecond,
		DebatePause:   time.Millisecond,
		FetchTimeout:  time.Second,
	}, config.DecisionConfig{
		MaxRiskScore:         0.35,
		MinConfidence:        0.75,
		MinJurisdictionScore: 0.85,
	}, healthyDeps())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.ProcessInstitutionalRequest(context.Background(),
			"Invest $500M in Aave", "jpmorgan_chase_001")
	}()

	time.Sleep(30 * time.Millisecond)
	_, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $100M in Curve", "jpmorgan_chase_001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRequestInFlight))

	<-done
}

func TestRealTimeStatus(t *testing.T) {
	engine := testEngine(healthyDeps())

	status := engine.RealTimeStatus()
	assert.Equal(t, SystemIdle, status.SystemStatus)
	assert.Len(t, status.Agents, 5)
	assert.Empty(t, status.RecentMessages)
	assert.Empty(t, status.Ledger)

	_, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)

	status = engine.RealTimeStatus()
	assert.Equal(t, SystemActive, status.SystemStatus)
	assert.LessOrEqual(t, len(status.RecentMessages), 10)
	assert.Len(t, status.Ledger, 2)
}

func TestReset(t *testing.T) {
	engine := testEngine(healthyDeps())

	_, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $500M in Aave", "jpmorgan_chase_001")
	require.NoError(t, err)

	engine.Reset()

	status := engine.RealTimeStatus()
	assert.Equal(t, SystemIdle, status.SystemStatus)
	assert.Empty(t, status.RecentMessages)
	assert.Empty(t, status.Ledger)
	for id, state := range status.Agents {
		assert.Equalf(t, StatusIdle, state.Status, "agent %s after reset", id)
		assert.Zerof(t, state.Progress, "agent %s progress after reset", id)
	}

	// The engine is reusable after a reset.
	summary, err := engine.ProcessInstitutionalRequest(context.Background(),
		"Invest $1.2B in Compound", "goldman_sachs_001")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, summary.Priority)
}
