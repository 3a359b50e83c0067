package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aegis/internal/metrics"
)

// baseYieldsAPY is the per-protocol base yield lookup, in percent.
var baseYieldsAPY = map[string]float64{
	"aave":     8.3,
	"compound": 6.8,
	"uniswap":  12.5,
	"curve":    9.1,
	"maker":    5.4,
	"lido":     4.8,
}

// defaultBaseYieldAPY is used for protocols outside the lookup table.
const defaultBaseYieldAPY = 7.5

// Ledger is the append-only list of simulated transaction records,
// cleared only by Reset.
type Ledger struct {
	mu      sync.Mutex
	records []TransactionRecord
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds records to the ledger. Thread-safe.
func (l *Ledger) Append(records ...TransactionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, records...)
	metrics.LedgerEntries.Add(float64(len(records)))
}

// Snapshot returns a copy of all records.
func (l *Ledger) Snapshot() []TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TransactionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset empties the ledger.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// runExecutionWorkflow drives the execution agent. It only produces
// transactions when the decision approved execution; otherwise it
// completes immediately with the blocking issues and an empty ledger
// contribution.
func (e *Engine) runExecutionWorkflow(ctx context.Context, plan *TaskPlan, decision ExecutionDecision) (ExecutionResult, error) {
	id := AgentExecution

	if err := e.registry.UpdateStatus(id, StatusAnalyzing, "Preparing execution strategy"); err != nil {
		return ExecutionResult{}, err
	}
	if err := e.simulateProgress(ctx, id, "Calculating optimal allocation parameters...", 25); err != nil {
		return ExecutionResult{}, err
	}

	if !decision.Approved() {
		e.bus.Post(id, AgentCoordinator, "execution_skipped",
			"Execution withheld: decision requires manual review", map[string]interface{}{
				"blocking_issues": decision.BlockingIssues,
			})
		if err := e.registry.UpdateStatus(id, StatusCompleted, "Execution withheld pending review"); err != nil {
			return ExecutionResult{}, err
		}
		return ExecutionResult{Decision: decision}, nil
	}

	if err := e.registry.UpdateStatus(id, StatusExecuting, "Preparing smart contract calls"); err != nil {
		return ExecutionResult{}, err
	}
	if err := e.simulateProgress(ctx, id, "Generating transaction parameters...", 60); err != nil {
		return ExecutionResult{}, err
	}
	if err := e.registry.UpdateStatus(id, StatusExecuting, "Executing blockchain transactions"); err != nil {
		return ExecutionResult{}, err
	}
	if err := e.simulateProgress(ctx, id, "Broadcasting transactions...", 90); err != nil {
		return ExecutionResult{}, err
	}

	// Annual yield = amount × (base yield + market adjustment) / 100.
	adjustment := e.deps.Random.Float(-0.5, 0.5)
	apy := baseYieldFor(plan.Protocol.Symbol) + adjustment
	annualYield := plan.AmountUSD.Mul(decimal.NewFromFloat(apy)).Div(decimal.NewFromInt(100))

	now := time.Now().UTC()
	transactions := []TransactionRecord{
		{
			ID:        uuid.NewString(),
			TxHash:    syntheticTxHash(),
			Type:      "Compliance Approval",
			AmountUSD: decimal.Zero,
			Status:    "SUCCESS",
			Timestamp: now,
		},
		{
			ID:        uuid.NewString(),
			TxHash:    syntheticTxHash(),
			Type:      "Investment Execution",
			AmountUSD: plan.AmountUSD,
			Status:    "SUCCESS",
			Timestamp: now,
		},
	}
	e.ledger.Append(transactions...)

	result := ExecutionResult{
		Decision:       decision,
		AnnualYieldUSD: annualYield,
		EffectiveAPY:   apy,
		Strategy:       "Dollar-cost average over 48 hours",
		Transactions:   transactions,
	}

	e.bus.Post(id, AgentCoordinator, "execution_complete",
		fmt.Sprintf("Execution complete: $%s deployed into %s at %.2f%% effective APY",
			plan.AmountUSD.StringFixed(0), plan.Protocol.Name, apy),
		map[string]interface{}{
			"estimated_annual_yield_usd": annualYield.StringFixed(0),
			"transactions":               len(transactions),
		})

	if err := e.registry.UpdateStatus(id, StatusCompleted, "Investment execution complete"); err != nil {
		return ExecutionResult{}, err
	}
	return result, nil
}

func baseYieldFor(symbol string) float64 {
	if y, ok := baseYieldsAPY[strings.ToLower(symbol)]; ok {
		return y
	}
	return defaultBaseYieldAPY
}

// syntheticTxHash fabricates a ledger hash for the simulated chain.
func syntheticTxHash() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
