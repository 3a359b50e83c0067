package agents

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgentID identifies one of the five fixed agents.
type AgentID string

const (
	AgentResearch    AgentID = "research_agent"
	AgentRisk        AgentID = "risk_agent"
	AgentRegulatory  AgentID = "regulatory_agent"
	AgentExecution   AgentID = "execution_agent"
	AgentCoordinator AgentID = "coordinator_agent"

	// AgentBroadcast is the sentinel recipient for messages addressed to everyone.
	AgentBroadcast AgentID = "all_agents"
)

// AllAgents lists the fixed agent set in registry order.
var AllAgents = []AgentID{
	AgentResearch,
	AgentRisk,
	AgentRegulatory,
	AgentExecution,
	AgentCoordinator,
}

// AgentStatus is the per-agent state machine.
//
// IDLE → {RESEARCHING | ANALYZING} → COLLABORATING (coordinator only)
// → EXECUTING (execution agent only) → COMPLETED.
// FAILED is reachable from any non-terminal state.
type AgentStatus string

const (
	StatusIdle          AgentStatus = "idle"
	StatusResearching   AgentStatus = "researching"
	StatusAnalyzing     AgentStatus = "analyzing"
	StatusCollaborating AgentStatus = "collaborating"
	StatusExecuting     AgentStatus = "executing"
	StatusCompleted     AgentStatus = "completed"
	StatusFailed        AgentStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s AgentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskPriority is derived from the requested investment amount.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// AgentState is the dashboard-visible state of one agent.
// Each workflow exclusively owns writes to its own entry.
type AgentState struct {
	AgentID             AgentID                `json:"agent_id"`
	Name                string                 `json:"name"`
	Specialization      string                 `json:"specialization"`
	Status              AgentStatus            `json:"status"`
	CurrentTask         string                 `json:"current_task"`
	Progress            float64                `json:"progress"`
	LastAction          string                 `json:"last_action"`
	Timestamp           time.Time              `json:"timestamp"`
	ConversationHistory []string               `json:"conversation_history"`
	Findings            map[string]interface{} `json:"findings"`
	ConfidenceLevel     float64                `json:"confidence_level"`
}

// CollaborationMessage is an immutable entry in the inter-agent log.
type CollaborationMessage struct {
	FromAgent   AgentID                `json:"from_agent"`
	ToAgent     AgentID                `json:"to_agent"`
	MessageType string                 `json:"message_type"`
	Content     string                 `json:"content"`
	Data        map[string]interface{} `json:"data"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Protocol is the canonical protocol triple resolved by the planner.
type Protocol struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

// TaskPlan is generated once per request and consumed read-only
// by all three analysis workflows.
type TaskPlan struct {
	RequestID       string          `json:"request_id"`
	Request         string          `json:"request"`
	InstitutionID   string          `json:"institution_id"`
	Protocol        Protocol        `json:"protocol"`
	AmountUSD       decimal.Decimal `json:"amount_usd"`
	Priority        TaskPriority    `json:"priority"`
	EstimatedTime   string          `json:"estimated_time"`
	ResearchTasks   []string        `json:"research_tasks"`
	RiskTasks       []string        `json:"risk_tasks"`
	RegulatoryTasks []string        `json:"regulatory_tasks"`
	ExecutionTasks  []string        `json:"execution_tasks"`
}

// Findings is the capability shared by the three workflow outputs:
// a confidence value plus a primary verdict and a metric map for the
// agent state.
type Findings interface {
	Confidence() float64
	Verdict() string
	Metrics() map[string]interface{}
}

// ResearchFindings is the research workflow output.
type ResearchFindings struct {
	ProtocolHealth  float64 `json:"protocol_health"`
	YieldEstimate   float64 `json:"yield_estimate"`
	Sentiment       string  `json:"market_sentiment"`
	PriceChange30d  float64 `json:"price_change_30d"`
	TVLUSD          float64 `json:"tvl_usd"`
	ConfidenceScore float64 `json:"confidence"`
	Degraded        bool    `json:"degraded"`
}

func (f ResearchFindings) Confidence() float64 { return f.ConfidenceScore }
func (f ResearchFindings) Verdict() string     { return f.Sentiment }

func (f ResearchFindings) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"protocol_health":  f.ProtocolHealth,
		"yield_estimate":   f.YieldEstimate,
		"market_sentiment": f.Sentiment,
		"price_change_30d": f.PriceChange30d,
		"tvl_usd":          f.TVLUSD,
		"confidence":       f.ConfidenceScore,
	}
}

// RiskLevel buckets the overall risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskFindings is the risk workflow output.
type RiskFindings struct {
	RiskScore       float64            `json:"overall_risk_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Breakdown       map[string]float64 `json:"risk_breakdown"`
	MaxExposurePct  float64            `json:"max_recommended_exposure_pct"`
	ConfidenceScore float64            `json:"confidence"`
	Degraded        bool               `json:"degraded"`
}

func (f RiskFindings) Confidence() float64 { return f.ConfidenceScore }
func (f RiskFindings) Verdict() string     { return string(f.RiskLevel) }

func (f RiskFindings) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"overall_risk_score":           f.RiskScore,
		"risk_level":                   string(f.RiskLevel),
		"risk_breakdown":               f.Breakdown,
		"max_recommended_exposure_pct": f.MaxExposurePct,
		"confidence":                   f.ConfidenceScore,
	}
}

// ComplianceVerdict is the regulatory workflow's primary verdict.
type ComplianceVerdict string

const (
	ComplianceApproved ComplianceVerdict = "APPROVED"
	ComplianceReview   ComplianceVerdict = "REQUIRES_REVIEW"
)

// JurisdictionStatus is the per-jurisdiction compliance result.
type JurisdictionStatus struct {
	Score     float64 `json:"score"`
	Compliant bool    `json:"compliant"`
}

// ComplianceFindings is the regulatory workflow output.
type ComplianceFindings struct {
	Overall         ComplianceVerdict             `json:"overall_compliance"`
	Jurisdictions   map[string]JurisdictionStatus `json:"jurisdiction_status"`
	AMLRiskScore    float64                       `json:"aml_risk_score"`
	AMLClear        bool                          `json:"aml_clear"`
	ConfidenceScore float64                       `json:"confidence"`
	Degraded        bool                          `json:"degraded"`
}

func (f ComplianceFindings) Confidence() float64 { return f.ConfidenceScore }
func (f ComplianceFindings) Verdict() string     { return string(f.Overall) }

func (f ComplianceFindings) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"overall_compliance":  string(f.Overall),
		"jurisdiction_status": f.Jurisdictions,
		"aml_risk_score":      f.AMLRiskScore,
		"aml_clear":           f.AMLClear,
		"confidence":          f.ConfidenceScore,
	}
}

// DecisionOutcome tags the final approval decision.
type DecisionOutcome string

const (
	DecisionApproved DecisionOutcome = "APPROVED_FOR_EXECUTION"
	DecisionReview   DecisionOutcome = "REQUIRES_REVIEW"
)

// ExecutionDecision is the DecisionEngine output.
type ExecutionDecision struct {
	Outcome        DecisionOutcome `json:"decision"`
	Reason         string          `json:"reason"`
	BlockingIssues []string        `json:"blocking_issues"`
}

// Approved reports whether execution may proceed.
func (d ExecutionDecision) Approved() bool { return d.Outcome == DecisionApproved }

// TransactionRecord is a simulated ledger entry.
type TransactionRecord struct {
	ID        string          `json:"id"`
	TxHash    string          `json:"tx_hash"`
	Type      string          `json:"type"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// ExecutionResult is the execution workflow output. When the decision is
// not approved it carries the blocking issues and no transactions.
type ExecutionResult struct {
	Decision       ExecutionDecision   `json:"decision"`
	AnnualYieldUSD decimal.Decimal     `json:"estimated_annual_yield_usd"`
	EffectiveAPY   float64             `json:"effective_apy"`
	Strategy       string              `json:"execution_strategy"`
	Transactions   []TransactionRecord `json:"transactions"`
}

// AgentPerformance summarizes one agent for the final report.
type AgentPerformance struct {
	Status      AgentStatus `json:"status"`
	Confidence  float64     `json:"confidence"`
	KeyFindings []string    `json:"key_findings"`
}

// FinancialImpact summarizes the money side of the decision.
type FinancialImpact struct {
	InvestmentAmount     string `json:"investment_amount"`
	EstimatedAnnualYield string `json:"estimated_annual_yield"`
	RiskLevel            string `json:"risk_level"`
	ComplianceStatus     string `json:"compliance_status"`
}

// SummaryReport is the immutable per-request report.
type SummaryReport struct {
	RequestID             string                       `json:"request_id"`
	OriginalRequest       string                       `json:"original_request"`
	InstitutionID         string                       `json:"institution_id"`
	Protocol              Protocol                     `json:"protocol_analyzed"`
	Priority              TaskPriority                 `json:"priority"`
	EstimatedTime         string                       `json:"estimated_time"`
	ExecutionTime         string                       `json:"execution_time"`
	AgentsDeployed        int                          `json:"agents_deployed"`
	AgentsCompleted       int                          `json:"agents_completed"`
	CollaborationMessages int                          `json:"collaboration_messages"`
	LedgerEntries         int                          `json:"ledger_entries"`
	FinalDecision         ExecutionDecision            `json:"final_decision"`
	FinancialImpact       FinancialImpact              `json:"financial_impact"`
	AgentPerformance      map[AgentID]AgentPerformance `json:"agent_performance"`
	Cancelled             bool                         `json:"cancelled"`
}

// SystemStatus is ACTIVE while any agent is off IDLE.
type SystemStatus string

const (
	SystemActive SystemStatus = "ACTIVE"
	SystemIdle   SystemStatus = "IDLE"
)

// StatusSnapshot is the real-time dashboard view.
type StatusSnapshot struct {
	Agents         map[AgentID]AgentState `json:"agents"`
	RecentMessages []CollaborationMessage `json:"recent_messages"`
	Ledger         []TransactionRecord    `json:"ledger"`
	SystemStatus   SystemStatus           `json:"system_status"`
}
