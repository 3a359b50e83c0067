package agents

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aegis/pkg/logger"
)

// knownProtocols is the planner lookup table: case-insensitive substring
// match against the request text, first hit wins. The addresses are the
// canonical mainnet deployments.
var knownProtocols = []Protocol{
	{Name: "Aave V2", Symbol: "aave", Address: "0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9"},
	{Name: "Compound", Symbol: "compound", Address: "0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B"},
	{Name: "Uniswap V3", Symbol: "uniswap", Address: "0x1F98431c8aD98523631AE4a59f267346ea31F984"},
	{Name: "Curve Finance", Symbol: "curve", Address: "0xD51a44d3FaE010294C616388b506AcdA1bfAAE46"},
	{Name: "MakerDAO", Symbol: "maker", Address: "0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2"},
	{Name: "Lido", Symbol: "lido", Address: "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"},
}

// defaultProtocol is used when no protocol name matches.
var defaultProtocol = knownProtocols[0]

// defaultAmountUSD is used when no amount token parses: $100,000,000.
var defaultAmountUSD = decimal.NewFromInt(100_000_000)

// amountPattern matches a dollar amount with an optional magnitude suffix,
// e.g. "$500M", "$1.2B", "$75000000".
var amountPattern = regexp.MustCompile(`\$\s*([0-9]+(?:\.[0-9]+)?)\s*([MmBb])?`)

var (
	million = decimal.NewFromInt(1_000_000)
	billion = decimal.NewFromInt(1_000_000_000)
)

// Planner derives a TaskPlan from a free-text institutional request.
// It never fails: unparseable fields fall back to documented defaults.
type Planner struct {
	log *logger.Logger
}

// NewPlanner constructs a planner.
func NewPlanner() *Planner {
	return &Planner{log: logger.Get().With("component", "planner")}
}

// Plan parses the request into the structured plan consumed by all
// three analysis workflows.
func (p *Planner) Plan(request, institutionID string) *TaskPlan {
	protocol := p.resolveProtocol(request)
	amount := p.parseAmount(request)
	priority, estimate := priorityFor(amount)

	plan := &TaskPlan{
		RequestID:     fmt.Sprintf("req_%s", uuid.NewString()[:8]),
		Request:       request,
		InstitutionID: institutionID,
		Protocol:      protocol,
		AmountUSD:     amount,
		Priority:      priority,
		EstimatedTime: estimate,
		ResearchTasks: []string{
			"Analyze protocol TVL and liquidity metrics",
			"Review recent security audits and governance changes",
			"Assess market conditions and yield opportunities",
		},
		RiskTasks: []string{
			"Calculate multi-dimensional risk score",
			"Stress test against market scenarios",
			"Evaluate counterparty risks",
		},
		RegulatoryTasks: []string{
			"Check SEC, FCA, MiCA, FSA compliance status",
			"Analyze AML/KYC requirements",
			"Review reporting obligations",
		},
		ExecutionTasks: []string{
			"Prepare smart contract interactions",
			"Calculate optimal allocation strategy",
			"Execute on-chain transactions if approved",
		},
	}

	p.log.Infof("Task plan %s: protocol=%s amount=$%s priority=%s",
		plan.RequestID, protocol.Name, amount.String(), priority)

	return plan
}

func (p *Planner) resolveProtocol(request string) Protocol {
	lower := strings.ToLower(request)
	for _, proto := range knownProtocols {
		if strings.Contains(lower, proto.Symbol) {
			return proto
		}
	}
	return defaultProtocol
}

func (p *Planner) parseAmount(request string) decimal.Decimal {
	match := amountPattern.FindStringSubmatch(request)
	if match == nil {
		return defaultAmountUSD
	}

	value, err := decimal.NewFromString(match[1])
	if err != nil {
		return defaultAmountUSD
	}

	switch strings.ToUpper(match[2]) {
	case "M":
		value = value.Mul(million)
	case "B":
		value = value.Mul(billion)
	}
	return value
}

// priorityFor maps the investment amount onto a priority tier and the
// pipeline time estimate quoted to the institution. The HIGH boundary is
// inclusive: a flagship $500M request is quoted the 90-second track.
func priorityFor(amount decimal.Decimal) (TaskPriority, string) {
	switch {
	case amount.GreaterThan(billion):
		return PriorityCritical, "120 seconds"
	case amount.GreaterThanOrEqual(decimal.NewFromInt(500_000_000)):
		return PriorityHigh, "90 seconds"
	case amount.GreaterThan(defaultAmountUSD):
		return PriorityMedium, "75 seconds"
	default:
		return PriorityLow, "60 seconds"
	}
}
