// Package backtest simulates execution of strategy intents over historical
// bars and computes aggregate performance statistics.
//
// The simulator is the single writer of position and cash state. The strategy
// only proposes intents; the simulator decides fills, applies commission, and
// tracks the equity curve under one bar-at-a-time loop with no look-ahead.
package backtest

import (
	"fmt"
	"log"
	"time"

	"momentum-backtest/internal/indicator"
	"momentum-backtest/internal/model"
	"momentum-backtest/internal/strategy"
)

// Config holds simulation parameters.
type Config struct {
	Cash       float64 // starting cash, quote currency
	Commission float64 // per-side rate on notional, e.g. 0.0002
}

// Result is the full output of one backtest run.
type Result struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
	Bars     int

	StartCash        float64
	EndEquity        float64
	TotalReturnPct   float64
	BuyHoldReturnPct float64
	MaxDrawdownPct   float64
	ExposurePct      float64
	WinRatePct       float64
	ProfitFactor     float64
	AvgTradePct      float64
	SharpeRatio      float64

	Trades []model.Trade
	Equity []model.EquityPoint
}

// Simulator replays bars through the signal evaluator and fills intents.
type Simulator struct {
	cfg Config

	// Optional hooks for journaling and metrics.
	OnFill    func(t model.Trade)
	OnIntent  func(it model.Intent)
	OnCompute func(d time.Duration) // indicator recompute latency
}

// NewSimulator creates a simulator with the given cash and commission.
func NewSimulator(cfg Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// openPosition is the simulator's internal mutable position state.
type openPosition struct {
	entryIdx   int
	entryTime  time.Time
	entryPrice float64
	qty        float64
	stopLoss   float64
	takeProfit float64
	entryFee   float64
}

// Run executes the strategy over the bar sequence.
//
// Per bar, in order: a pending entry fills at the open, stop-loss /
// take-profit levels are checked against the bar's range (stop first when
// both are inside one bar), then the signal for the bar's close is evaluated.
// Entry intents fill at the next bar's open; close intents fill at the
// signal bar's close.
func (s *Simulator) Run(bars []model.Bar, params strategy.Params) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("backtest: no bars to simulate")
	}

	computeStart := time.Now()
	series := indicator.Compute(bars, params.RSIPeriod, params.SMAPeriod, params.ATRPeriod)
	if s.OnCompute != nil {
		s.OnCompute(time.Since(computeStart))
	}

	res := &Result{
		Symbol:    bars[0].Symbol,
		Interval:  bars[0].Interval,
		Start:     bars[0].OpenTime,
		End:       bars[len(bars)-1].OpenTime,
		Bars:      len(bars),
		StartCash: s.cfg.Cash,
		Equity:    make([]model.EquityPoint, 0, len(bars)),
	}

	cash := s.cfg.Cash
	var pos *openPosition
	var pending *model.Intent // entry signaled on the previous bar
	barsExposed := 0

	for i := range bars {
		bar := bars[i]

		// 1. Fill a pending entry at this bar's open.
		if pending != nil && pos == nil {
			pos = s.fillEntry(&cash, i, bar, pending)
			pending = nil
		}

		// 2. Resolve protective exits against this bar's range.
		if pos != nil {
			if exited := s.checkStops(&cash, res, pos, bar); exited {
				pos = nil
			}
		}

		// 3. Evaluate the signal at this bar's close.
		state := model.PositionState{}
		if pos != nil {
			state = model.PositionState{
				Long:       true,
				EntryPrice: pos.entryPrice,
				StopLoss:   pos.stopLoss,
				TakeProfit: pos.takeProfit,
				Qty:        pos.qty,
			}
		}
		intent := strategy.Evaluate(bars, &series, state, i, params)
		if intent.Type != model.IntentNone && s.OnIntent != nil {
			s.OnIntent(intent)
		}

		switch intent.Type {
		case model.IntentOpenLong:
			it := intent
			pending = &it // fills at the next bar's open
		case model.IntentClose:
			if pos != nil {
				s.closeAt(&cash, res, pos, bar, bar.Close, model.ExitSignal)
				pos = nil
			}
		}

		// 4. Mark equity at the close.
		equity := cash
		if pos != nil {
			equity += pos.qty * bar.Close
			barsExposed++
		}
		res.Equity = append(res.Equity, model.EquityPoint{TS: bar.OpenTime, Equity: equity})
	}

	// Liquidate any open position at the final close so stats are complete.
	if pos != nil {
		last := bars[len(bars)-1]
		s.closeAt(&cash, res, pos, last, last.Close, model.ExitEndOfData)
		res.Equity[len(res.Equity)-1].Equity = cash
	}

	finalize(res, bars, barsExposed)
	return res, nil
}

// fillEntry opens a long with all available cash at the bar's open.
func (s *Simulator) fillEntry(cash *float64, i int, bar model.Bar, intent *model.Intent) *openPosition {
	price := bar.Open
	if price <= 0 || *cash <= 0 {
		return nil
	}
	qty := *cash / (price * (1 + s.cfg.Commission))
	fee := qty * price * s.cfg.Commission
	*cash -= qty*price + fee

	log.Printf("[sim] open long %s qty=%.6f @ %.2f sl=%.2f tp=%.2f",
		bar.Symbol, qty, price, intent.StopLoss, intent.TakeProfit)

	return &openPosition{
		entryIdx:   i,
		entryTime:  bar.OpenTime,
		entryPrice: price,
		qty:        qty,
		stopLoss:   intent.StopLoss,
		takeProfit: intent.TakeProfit,
		entryFee:   fee,
	}
}

// checkStops applies stop-loss / take-profit fills within the bar's range.
// When both levels fall inside one bar the stop fills first (conservative).
// A bar that gaps through a level fills at the open, since the level's
// price never traded.
func (s *Simulator) checkStops(cash *float64, res *Result, pos *openPosition, bar model.Bar) bool {
	if bar.Low <= pos.stopLoss {
		price := pos.stopLoss
		if bar.Open < price {
			price = bar.Open
		}
		s.closeAt(cash, res, pos, bar, price, model.ExitStopLoss)
		return true
	}
	if bar.High >= pos.takeProfit {
		price := pos.takeProfit
		if bar.Open > price {
			price = bar.Open
		}
		s.closeAt(cash, res, pos, bar, price, model.ExitTakeProfit)
		return true
	}
	return false
}

// closeAt exits the full position at the given price and records the trade.
func (s *Simulator) closeAt(cash *float64, res *Result, pos *openPosition, bar model.Bar, price float64, reason model.ExitReason) {
	notional := pos.qty * price
	exitFee := notional * s.cfg.Commission
	*cash += notional - exitFee

	entryNotional := pos.qty * pos.entryPrice
	pnl := notional - entryNotional - pos.entryFee - exitFee

	t := model.Trade{
		Symbol:     bar.Symbol,
		EntryTime:  pos.entryTime,
		ExitTime:   bar.OpenTime,
		EntryPrice: pos.entryPrice,
		ExitPrice:  price,
		Qty:        pos.qty,
		StopLoss:   pos.stopLoss,
		TakeProfit: pos.takeProfit,
		Commission: pos.entryFee + exitFee,
		PnL:        pnl,
		ReturnPct:  pnl / entryNotional * 100,
		BarsHeld:   barIndexDelta(pos.entryTime, bar.OpenTime, bar.Interval),
		ExitReason: reason,
	}
	res.Trades = append(res.Trades, t)

	log.Printf("[sim] close %s @ %.2f reason=%s pnl=%.2f (%.2f%%)",
		bar.Symbol, price, reason, t.PnL, t.ReturnPct)

	if s.OnFill != nil {
		s.OnFill(t)
	}
}

// barIndexDelta estimates holding duration in bars from timestamps.
func barIndexDelta(entry, exit time.Time, interval string) int {
	d := model.IntervalDuration(interval)
	if d <= 0 {
		return 0
	}
	return int(exit.Sub(entry) / d)
}
