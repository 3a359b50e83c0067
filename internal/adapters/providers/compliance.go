package providers

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"aegis/internal/adapters/config"
	"aegis/internal/agents"
)

// Jurisdiction identifiers used across the rule tables.
const (
	JurisdictionSECUS  = "SEC_US"
	JurisdictionFCAUK  = "FCA_UK"
	JurisdictionMiCAEU = "MiCA_EU"
	JurisdictionFSAJP  = "FSA_JAPAN"
)

// defaultJurisdictions applies to institutions without a specific profile.
var defaultJurisdictions = []string{JurisdictionSECUS, JurisdictionFCAUK}

// institutionJurisdictions maps an institution to the jurisdictions whose
// approval it needs. Global banks answer to all four regulators.
var institutionJurisdictions = map[string][]string{
	"jpmorgan_chase_001": {JurisdictionSECUS, JurisdictionFCAUK, JurisdictionMiCAEU, JurisdictionFSAJP},
	"goldman_sachs_001":  {JurisdictionSECUS, JurisdictionFCAUK, JurisdictionMiCAEU},
	"nomura_001":         {JurisdictionFSAJP, JurisdictionSECUS},
	"barclays_001":       {JurisdictionFCAUK, JurisdictionMiCAEU},
}

// jurisdictionScores is the per-protocol regulatory standing table. The
// established lending protocols clear every regulator; the newer or more
// exotic ones trail in at least one.
var jurisdictionScores = map[string]map[string]float64{
	"aave": {
		JurisdictionSECUS:  0.92,
		JurisdictionFCAUK:  0.94,
		JurisdictionMiCAEU: 0.96,
		JurisdictionFSAJP:  0.90,
	},
	"compound": {
		JurisdictionSECUS:  0.90,
		JurisdictionFCAUK:  0.91,
		JurisdictionMiCAEU: 0.93,
		JurisdictionFSAJP:  0.88,
	},
	"uniswap": {
		JurisdictionSECUS:  0.78,
		JurisdictionFCAUK:  0.86,
		JurisdictionMiCAEU: 0.88,
		JurisdictionFSAJP:  0.82,
	},
	"curve": {
		JurisdictionSECUS:  0.84,
		JurisdictionFCAUK:  0.87,
		JurisdictionMiCAEU: 0.90,
		JurisdictionFSAJP:  0.85,
	},
	"maker": {
		JurisdictionSECUS:  0.91,
		JurisdictionFCAUK:  0.92,
		JurisdictionMiCAEU: 0.95,
		JurisdictionFSAJP:  0.89,
	},
	"lido": {
		JurisdictionSECUS:  0.80,
		JurisdictionFCAUK:  0.88,
		JurisdictionMiCAEU: 0.91,
		JurisdictionFSAJP:  0.86,
	},
}

// SyntheticComplianceProvider serves jurisdiction rules and AML screens
// from frozen tables. The tables are configuration data standing in for a
// compliance vendor feed.
type SyntheticComplianceProvider struct {
	limiter *rate.Limiter
	delay   time.Duration
	random  agents.RandomnessSource
}

// NewSyntheticComplianceProvider constructs the provider.
func NewSyntheticComplianceProvider(cfg config.ProviderConfig, random agents.RandomnessSource) *SyntheticComplianceProvider {
	return &SyntheticComplianceProvider{
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		delay:   cfg.SimulatedDelay,
		random:  random,
	}
}

// JurisdictionScores returns the regulatory standing of a protocol per
// jurisdiction. Unknown protocols get an empty map: every required
// jurisdiction then scores zero and fails, which is the conservative
// outcome.
func (p *SyntheticComplianceProvider) JurisdictionScores(ctx context.Context, protocol string) (map[string]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := simulateLatency(ctx, p.delay); err != nil {
		return nil, err
	}

	scores, ok := jurisdictionScores[strings.ToLower(protocol)]
	if !ok {
		return map[string]float64{}, nil
	}

	out := make(map[string]float64, len(scores))
	for j, s := range scores {
		out[j] = s
	}
	return out, nil
}

// AMLScreen runs the synthetic anti-money-laundering screen for an
// institution. Whitelisted institutions screen clean with a small
// variance on the residual risk score.
func (p *SyntheticComplianceProvider) AMLScreen(ctx context.Context, institutionID string) (agents.AMLScreen, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return agents.AMLScreen{}, err
	}
	if err := simulateLatency(ctx, p.delay); err != nil {
		return agents.AMLScreen{}, err
	}

	if _, known := institutionJurisdictions[institutionID]; known {
		return agents.AMLScreen{
			RiskScore:      p.random.Float(0.02, 0.12),
			SanctionsClear: true,
		}, nil
	}

	// Unknown counterparties screen as elevated and need manual review.
	return agents.AMLScreen{
		RiskScore:      p.random.Float(0.55, 0.85),
		SanctionsClear: true,
		Patterns:       []string{"counterparty not in institutional whitelist"},
	}, nil
}

// RequiredJurisdictions returns the jurisdictions whose approval the
// institution needs. Pure table lookup, no I/O.
func (p *SyntheticComplianceProvider) RequiredJurisdictions(institutionID string) []string {
	if required, ok := institutionJurisdictions[institutionID]; ok {
		out := make([]string, len(required))
		copy(out, required)
		return out
	}
	out := make([]string, len(defaultJurisdictions))
	copy(out, defaultJurisdictions)
	return out
}
