// Package strategy implements the momentum entry/exit rules.
//
// The evaluator is a two-state machine (flat / long) driven by the indicator
// series: it reads the current position state and proposes an Intent per bar,
// never mutating position or cash itself. Fills belong to the simulator.
package strategy

import (
	"momentum-backtest/internal/indicator"
	"momentum-backtest/internal/model"
)

// Params is the immutable strategy parameter set.
type Params struct {
	RSIPeriod     int
	SMAPeriod     int
	ATRPeriod     int
	ATRMultSL     float64
	ATRMultTP     float64
	BuyThreshold  float64
	SellThreshold float64
}

// DefaultParams returns the stock parameter set (RSI 21, SMA 50, ATR 14,
// SL 1.5x / TP 5.0x ATR, buy 55 / sell 45).
func DefaultParams() Params {
	return Params{
		RSIPeriod:     21,
		SMAPeriod:     50,
		ATRPeriod:     14,
		ATRMultSL:     1.5,
		ATRMultTP:     5.0,
		BuyThreshold:  55,
		SellThreshold: 45,
	}
}

// Ready reports whether all gating indicators are defined at bar i.
//
// RSI is deliberately not part of the gate: an undefined RSI simply
// fails the crossover check, so it can never produce a signal anyway.
func Ready(series *model.IndicatorSeries, i int) bool {
	if i < 0 || i >= series.Len() {
		return false
	}
	return indicator.Defined(series.SMA[i]) && indicator.Defined(series.ATR[i])
}

// Evaluate runs the entry/exit rules for bar i and returns the proposed
// intent. Rules are checked in buy-then-sell order and at most one intent is
// emitted per bar:
//
//   - flat, RSI crosses above the buy threshold, close above SMA → open long
//     with an ATR-derived stop-loss and take-profit
//   - long, RSI crosses below the sell threshold → close
//
// Pure function of its inputs; bars beyond i are never consulted.
func Evaluate(bars []model.Bar, series *model.IndicatorSeries, pos model.PositionState, i int, p Params) model.Intent {
	if !Ready(series, i) {
		return model.None(i)
	}

	price := bars[i].Close

	if !pos.Long && indicator.CrossOver(series.RSI, p.BuyThreshold, i) && price > series.SMA[i] {
		atr := series.ATR[i]
		return model.Intent{
			Type:       model.IntentOpenLong,
			BarIndex:   i,
			StopLoss:   price - p.ATRMultSL*atr,
			TakeProfit: price + p.ATRMultTP*atr,
			Reason:     "RSI crossed above buy threshold with close above SMA",
		}
	}

	if pos.Long && indicator.CrossUnder(series.RSI, p.SellThreshold, i) {
		return model.Intent{
			Type:     model.IntentClose,
			BarIndex: i,
			Reason:   "RSI crossed below sell threshold",
		}
	}

	return model.None(i)
}
