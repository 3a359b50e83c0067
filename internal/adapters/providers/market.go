package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"aegis/internal/adapters/config"
	"aegis/internal/agents"
)

// SyntheticMarketProvider serves market-wide conditions. Volatility and
// correlation are drawn from calm institutional-grade ranges around the
// seeded randomness source.
type SyntheticMarketProvider struct {
	limiter *rate.Limiter
	delay   time.Duration
	random  agents.RandomnessSource
}

// NewSyntheticMarketProvider constructs the provider.
func NewSyntheticMarketProvider(cfg config.ProviderConfig, random agents.RandomnessSource) *SyntheticMarketProvider {
	return &SyntheticMarketProvider{
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		delay:   cfg.SimulatedDelay,
		random:  random,
	}
}

// Fetch returns the current synthetic market snapshot. The symbol is
// accepted for interface symmetry; market conditions are global.
func (p *SyntheticMarketProvider) Fetch(ctx context.Context, _ string) (agents.MarketData, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return agents.MarketData{}, err
	}
	if err := simulateLatency(ctx, p.delay); err != nil {
		return agents.MarketData{}, err
	}

	volatility := p.random.Float(0.10, 0.35)
	correlation := p.random.Float(0.20, 0.60)

	trend := "sideways"
	switch {
	case volatility < 0.15:
		trend = "calm"
	case volatility > 0.28:
		trend = "turbulent"
	}

	return agents.MarketData{
		Volatility30d: volatility,
		Correlation:   correlation,
		TrendLabel:    trend,
	}, nil
}
