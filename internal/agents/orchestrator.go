package agents

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"aegis/internal/adapters/config"
	"aegis/internal/metrics"
	"aegis/pkg/errors"
	"aegis/pkg/logger"
)

// Deps bundles the external data providers the workflows consume.
type Deps struct {
	Protocols  ProtocolDataProvider
	Market     MarketDataProvider
	Compliance ComplianceRuleProvider
	Random     RandomnessSource
}

// Engine orchestrates the five agents through the full pipeline:
// plan, parallel analysis, debate, decision, conditional execution,
// summary. One request at a time; a second concurrent call fails fast
// with ErrRequestInFlight.
type Engine struct {
	cfg         config.EngineConfig
	decisionCfg config.DecisionConfig
	deps        Deps

	registry *Registry
	bus      *CollaborationBus
	ledger   *Ledger
	planner  *Planner
	decider  *DecisionEngine
	log      *logger.Logger

	runMu sync.Mutex
}

// NewEngine wires the orchestration engine.
func NewEngine(engineCfg config.EngineConfig, decisionCfg config.DecisionConfig, deps Deps) *Engine {
	registry := NewRegistry()
	return &Engine{
		cfg:         engineCfg,
		decisionCfg: decisionCfg,
		deps:        deps,
		registry:    registry,
		bus:         NewCollaborationBus(registry),
		ledger:      NewLedger(),
		planner:     NewPlanner(),
		decider:     NewDecisionEngine(decisionCfg),
		log:         logger.Get().With("component", "engine"),
	}
}

// Registry exposes the agent registry for the status surface.
func (e *Engine) Registry() *Registry { return e.registry }

// ProcessInstitutionalRequest runs the full pipeline for one request.
// Unparseable request text (the empty string included) resolves to the
// planner's documented defaults rather than an error.
// Analysis workflow failures degrade to neutral findings and never fail
// the pipeline. Context cancellation stops the pipeline, marks every
// unfinished agent FAILED and returns a partial summary with
// Cancelled set, not an error.
func (e *Engine) ProcessInstitutionalRequest(ctx context.Context, request, institutionID string) (*SummaryReport, error) {
	if !e.runMu.TryLock() {
		return nil, errors.Wrap(errors.ErrRequestInFlight, "another request is being processed")
	}
	defer e.runMu.Unlock()

	started := time.Now()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	plan := e.planner.Plan(request, institutionID)
	log := e.log.With("request_id", plan.RequestID)
	log.Infof("Processing institutional request: %s ($%s, priority %s)",
		plan.Protocol.Name, plan.AmountUSD.String(), plan.Priority)

	if err := e.registry.UpdateStatus(AgentCoordinator, StatusAnalyzing, "Creating multi-agent task plan"); err != nil {
		return nil, err
	}

	e.bus.Post(AgentCoordinator, AgentBroadcast, "task_delegation",
		fmt.Sprintf("New institutional request %s: %s investment of %s, priority %s. Deploying analysis agents.",
			plan.RequestID, plan.Protocol.Name, dollars(plan.AmountUSD), plan.Priority),
		map[string]interface{}{
			"request_id": plan.RequestID,
			"protocol":   plan.Protocol.Symbol,
			"amount_usd": plan.AmountUSD.String(),
			"priority":   string(plan.Priority),
		})

	research, risk, compliance, cancelled := e.runAnalysisPhase(ctx, plan)
	if cancelled {
		return e.cancel(plan, started, log), nil
	}

	if err := e.runDebate(ctx, plan, research, risk, compliance); err != nil {
		if errors.Is(err, errors.ErrOrchestrationCancelled) {
			return e.cancel(plan, started, log), nil
		}
		return nil, err
	}

	decision := e.decider.Decide(research, risk, compliance)

	execution, err := e.runExecutionWorkflow(ctx, plan, decision)
	if err != nil {
		if errors.Is(err, errors.ErrOrchestrationCancelled) {
			return e.cancel(plan, started, log), nil
		}
		// Execution failure past the decision point demands review,
		// never a crash.
		log.Errorf("Execution workflow failed: %v", err)
		e.registry.FailNonTerminal("Execution failure")
		decision = ExecutionDecision{
			Outcome:        DecisionReview,
			Reason:         "Execution workflow failed",
			BlockingIssues: []string{err.Error()},
		}
		execution = ExecutionResult{Decision: decision}
	}

	if err := e.registry.UpdateStatus(AgentCoordinator, StatusCompleted, "Orchestration complete"); err != nil {
		return nil, err
	}

	summary := e.buildSummary(plan, decision, risk, compliance, execution, started, false)

	metrics.RequestsProcessed.WithLabelValues(string(decision.Outcome), string(plan.Priority)).Inc()
	metrics.RequestDuration.Observe(time.Since(started).Seconds())

	log.Infof("Request complete: %s in %s (%d messages, %d ledger entries)",
		decision.Outcome, summary.ExecutionTime, summary.CollaborationMessages, summary.LedgerEntries)

	return summary, nil
}

// runAnalysisPhase fans the three analysis workflows out, joins them and
// substitutes neutral findings for any that failed. A failed workflow
// marks its agent FAILED; a panic inside a workflow is recovered and
// treated as a failure of that workflow alone.
func (e *Engine) runAnalysisPhase(ctx context.Context, plan *TaskPlan) (ResearchFindings, RiskFindings, ComplianceFindings, bool) {
	workflows := map[AgentID]func(context.Context, *TaskPlan) (Findings, error){
		AgentResearch:   e.runResearchWorkflow,
		AgentRisk:       e.runRiskWorkflow,
		AgentRegulatory: e.runRegulatoryWorkflow,
	}

	results := make(chan workflowResult, len(workflows))
	var wg sync.WaitGroup

	for id, run := range workflows {
		wg.Add(1)
		go func(id AgentID, run func(context.Context, *TaskPlan) (Findings, error)) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.log.Errorf("Workflow %s panicked: %v\n%s", id, r, debug.Stack())
					results <- workflowResult{agent: id, err: errors.Newf("workflow %s panicked: %v", id, r)}
				}
			}()

			workflowStart := time.Now()
			findings, err := run(ctx, plan)
			metrics.RecordWorkflow(string(id), time.Since(workflowStart), err)
			results <- workflowResult{agent: id, findings: findings, err: err}
		}(id, run)
	}

	wg.Wait()
	close(results)

	cancelled := false
	collected := make(map[AgentID]Findings, len(workflows))
	for result := range results {
		if result.err != nil {
			if errors.Is(result.err, errors.ErrOrchestrationCancelled) {
				cancelled = true
				continue
			}
			e.log.Warnf("Workflow %s failed, degrading to neutral findings: %v", result.agent, result.err)
			_ = e.registry.UpdateStatus(result.agent, StatusFailed, "Workflow failed")
			continue
		}
		collected[result.agent] = result.findings
	}

	if cancelled {
		return ResearchFindings{}, RiskFindings{}, ComplianceFindings{}, true
	}

	research, ok := collected[AgentResearch].(ResearchFindings)
	if !ok {
		research = neutralResearchFindings()
	}
	risk, ok := collected[AgentRisk].(RiskFindings)
	if !ok {
		risk = neutralRiskFindings()
	}
	compliance, ok := collected[AgentRegulatory].(ComplianceFindings)
	if !ok {
		compliance = neutralComplianceFindings(e.deps.Compliance.RequiredJurisdictions(plan.InstitutionID))
	}
	return research, risk, compliance, false
}

// cancel marks every unfinished agent FAILED and builds the partial
// summary returned for a cancelled run.
func (e *Engine) cancel(plan *TaskPlan, started time.Time, log *logger.Logger) *SummaryReport {
	log.Warnf("Orchestration cancelled after %.1fs", time.Since(started).Seconds())
	e.registry.FailNonTerminal("Orchestration cancelled")

	decision := ExecutionDecision{
		Outcome:        DecisionReview,
		Reason:         "Orchestration cancelled before completion",
		BlockingIssues: []string{"orchestration cancelled"},
	}
	summary := e.buildSummary(plan, decision, neutralRiskFindings(),
		ComplianceFindings{Overall: ComplianceReview}, ExecutionResult{Decision: decision}, started, true)

	metrics.RequestsProcessed.WithLabelValues("CANCELLED", string(plan.Priority)).Inc()
	metrics.RequestDuration.Observe(time.Since(started).Seconds())
	return summary
}

// RealTimeStatus returns the dashboard snapshot: all agent states, the
// last ten collaboration messages, the full ledger and the ACTIVE/IDLE
// flag.
func (e *Engine) RealTimeStatus() StatusSnapshot {
	status := SystemIdle
	if e.registry.Active() {
		status = SystemActive
	}
	return StatusSnapshot{
		Agents:         e.registry.Snapshot(),
		RecentMessages: e.bus.Recent(10),
		Ledger:         e.ledger.Snapshot(),
		SystemStatus:   status,
	}
}

// Reset returns the engine to its initial state: agents IDLE, empty
// collaboration log, empty ledger. Blocks until any in-flight request
// finishes.
func (e *Engine) Reset() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.registry.Reset()
	e.bus.Reset()
	e.ledger.Reset()
	e.log.Info("Engine reset to initial state")
}
