package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/adapters/config"
	"aegis/pkg/errors"
)

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		RandomSeed:     42,
		RateLimitRPS:   1000,
		SimulatedDelay: 0,
	}
}

func TestSeededRandom_Deterministic(t *testing.T) {
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float(0, 1), b.Float(0, 1))
	}
}

func TestSeededRandom_Bounds(t *testing.T) {
	r := NewSeededRandom(7)

	for i := 0; i < 100; i++ {
		v := r.Float(-0.5, 0.5)
		assert.GreaterOrEqual(t, v, -0.5)
		assert.Less(t, v, 0.5)
	}
}

func TestProtocolProvider_KnownSymbols(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticProtocolProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	for _, symbol := range []string{"aave", "compound", "uniswap", "curve", "maker", "lido"} {
		data, err := p.Fetch(context.Background(), symbol)
		require.NoErrorf(t, err, "symbol %s", symbol)
		assert.Equal(t, symbol, data.Symbol)
		assert.True(t, data.TVLUSD.IsPositive())
		assert.Greater(t, data.BaseYieldAPY, 0.0)
		assert.Equal(t, "audited", data.AuditStatus)
	}
}

func TestProtocolProvider_CaseInsensitive(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticProtocolProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	data, err := p.Fetch(context.Background(), "AAVE")
	require.NoError(t, err)
	assert.Equal(t, "Aave V2", data.Name)
}

func TestProtocolProvider_UnknownSymbol(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticProtocolProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	_, err := p.Fetch(context.Background(), "dogecoin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestProtocolProvider_RespectsContext(t *testing.T) {
	cfg := testProviderConfig()
	cfg.SimulatedDelay = 100 * time.Millisecond
	p := NewSyntheticProtocolProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := p.Fetch(ctx, "aave")
	assert.Error(t, err)
}

func TestMarketProvider_Ranges(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticMarketProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	for i := 0; i < 20; i++ {
		data, err := p.Fetch(context.Background(), "aave")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, data.Volatility30d, 0.10)
		assert.Less(t, data.Volatility30d, 0.35)
		assert.GreaterOrEqual(t, data.Correlation, 0.20)
		assert.Less(t, data.Correlation, 0.60)
		assert.NotEmpty(t, data.TrendLabel)
	}
}

func TestComplianceProvider_JurisdictionScores(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticComplianceProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	scores, err := p.JurisdictionScores(context.Background(), "aave")
	require.NoError(t, err)
	require.Len(t, scores, 4)
	for j, s := range scores {
		assert.Greaterf(t, s, 0.0, "jurisdiction %s", j)
		assert.LessOrEqualf(t, s, 1.0, "jurisdiction %s", j)
	}

	// Unknown protocols get an empty map so every check fails downstream.
	scores, err = p.JurisdictionScores(context.Background(), "dogecoin")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestComplianceProvider_AMLScreen(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticComplianceProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	known, err := p.AMLScreen(context.Background(), "jpmorgan_chase_001")
	require.NoError(t, err)
	assert.True(t, known.Clear())

	unknown, err := p.AMLScreen(context.Background(), "shell_company_042")
	require.NoError(t, err)
	assert.False(t, unknown.Clear())
	assert.NotEmpty(t, unknown.Patterns)
}

func TestComplianceProvider_RequiredJurisdictions(t *testing.T) {
	cfg := testProviderConfig()
	p := NewSyntheticComplianceProvider(cfg, NewSeededRandom(cfg.RandomSeed))

	global := p.RequiredJurisdictions("jpmorgan_chase_001")
	assert.Len(t, global, 4)

	fallback := p.RequiredJurisdictions("unknown_institution")
	assert.Equal(t, []string{JurisdictionSECUS, JurisdictionFCAUK}, fallback)

	// Returned slices are copies.
	fallback[0] = "mutated"
	assert.Equal(t, JurisdictionSECUS, p.RequiredJurisdictions("unknown_institution")[0])
}
