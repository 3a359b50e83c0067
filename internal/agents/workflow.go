package agents

import (
	"context"
	"time"

	"aegis/internal/metrics"
	"aegis/pkg/errors"
)

// workflowResult carries one workflow's findings across the fan-in join.
type workflowResult struct {
	agent    AgentID
	findings Findings
	err      error
}

// simulateProgress advances an agent's progress toward target in a fixed
// number of equal steps with a cooperative pause between them. Intermediate
// values are linear interpolations; the final value equals target exactly.
// The ramp makes concurrent progress externally observable, it performs
// no work.
func (e *Engine) simulateProgress(ctx context.Context, id AgentID, action string, target float64) error {
	state, err := e.registry.Get(id)
	if err != nil {
		return err
	}

	current := state.Progress
	steps := e.cfg.ProgressSteps
	if steps < 1 {
		steps = 1
	}
	increment := (target - current) / float64(steps)

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrOrchestrationCancelled, ctx.Err().Error())
		case <-time.After(e.cfg.StepPause):
		}

		value := current + increment*float64(i)
		if i == steps {
			value = target
		}
		if err := e.registry.SetProgress(id, value, action); err != nil {
			return err
		}
	}
	return nil
}

// pause sleeps cooperatively, honoring cancellation.
func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrOrchestrationCancelled, ctx.Err().Error())
	case <-time.After(d):
		return nil
	}
}

// fetchProtocolData queries the protocol provider bounded by the fetch
// timeout. Callers degrade to neutral findings on error, never fail.
func (e *Engine) fetchProtocolData(ctx context.Context, symbol string) (ProtocolData, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	data, err := e.deps.Protocols.Fetch(fetchCtx, symbol)
	metrics.ProviderFetches.WithLabelValues("protocol", fetchStatus(err)).Inc()
	if err != nil {
		return ProtocolData{}, errors.Wrapf(errors.ErrDataFetch, "protocol %s: %v", symbol, err)
	}
	return data, nil
}

func (e *Engine) fetchMarketData(ctx context.Context, symbol string) (MarketData, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	data, err := e.deps.Market.Fetch(fetchCtx, symbol)
	metrics.ProviderFetches.WithLabelValues("market", fetchStatus(err)).Inc()
	if err != nil {
		return MarketData{}, errors.Wrapf(errors.ErrDataFetch, "market %s: %v", symbol, err)
	}
	return data, nil
}

func (e *Engine) fetchJurisdictionScores(ctx context.Context, protocol string) (map[string]float64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	scores, err := e.deps.Compliance.JurisdictionScores(fetchCtx, protocol)
	metrics.ProviderFetches.WithLabelValues("compliance", fetchStatus(err)).Inc()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataFetch, "jurisdiction scores %s: %v", protocol, err)
	}
	return scores, nil
}

func (e *Engine) fetchAMLScreen(ctx context.Context, institutionID string) (AMLScreen, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	screen, err := e.deps.Compliance.AMLScreen(fetchCtx, institutionID)
	metrics.ProviderFetches.WithLabelValues("aml", fetchStatus(err)).Inc()
	if err != nil {
		return AMLScreen{}, errors.Wrapf(errors.ErrDataFetch, "aml screen %s: %v", institutionID, err)
	}
	return screen, nil
}

func fetchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
