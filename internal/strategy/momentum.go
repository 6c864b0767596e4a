package strategy

import (
	"momentum-backtest/internal/indicator"
	"momentum-backtest/internal/model"
)

// Momentum is a streaming wrapper around Evaluate for live kline feeds.
//
// It accumulates closed bars, recomputes the indicator series, and tracks a
// paper position so consecutive intents stay consistent (no open-while-long,
// no close-while-flat). Designed for single-goroutine usage, no locks.
type Momentum struct {
	params Params
	bars   []model.Bar
	pos    model.PositionState
}

// NewMomentum creates a streaming evaluator with the given parameters.
func NewMomentum(p Params) *Momentum {
	return &Momentum{
		params: p,
		bars:   make([]model.Bar, 0, 1024),
	}
}

// Name returns the strategy identifier.
func (m *Momentum) Name() string { return "volume_rsi_momentum" }

// Position returns the current paper position state.
func (m *Momentum) Position() model.PositionState { return m.pos }

// Warm reports whether enough bars have accumulated for gated evaluation.
func (m *Momentum) Warm() bool {
	i := len(m.bars) - 1
	if i < 0 {
		return false
	}
	// SMA has the longest warm-up with default parameters, but check both
	// gate indicators to stay correct for arbitrary periods.
	return i >= m.params.SMAPeriod-1 && i >= m.params.ATRPeriod-1
}

// OnBar ingests one closed bar and returns the intent for it.
//
// The full series is recomputed per bar; at live cadence (one closed candle
// per interval) this is not a bottleneck and keeps the streaming path on
// the same code as the batch pipeline.
func (m *Momentum) OnBar(bar model.Bar) model.Intent {
	m.bars = append(m.bars, bar)
	i := len(m.bars) - 1

	series := indicator.Compute(m.bars, m.params.RSIPeriod, m.params.SMAPeriod, m.params.ATRPeriod)
	intent := Evaluate(m.bars, &series, m.pos, i, m.params)

	// Apply the intent to the paper position so the state machine advances.
	switch intent.Type {
	case model.IntentOpenLong:
		m.pos = model.PositionState{
			Long:       true,
			EntryPrice: bar.Close,
			StopLoss:   intent.StopLoss,
			TakeProfit: intent.TakeProfit,
		}
	case model.IntentClose:
		m.pos = model.PositionState{}
	}

	return intent
}
