package model

import "time"

// ExitReason describes why a position was closed.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one completed round trip recorded by the simulator.
type Trade struct {
	Symbol     string     `json:"symbol"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Qty        float64    `json:"qty"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Commission float64    `json:"commission"` // entry + exit fees, quote currency
	PnL        float64    `json:"pnl"`        // net of commission, quote currency
	ReturnPct  float64    `json:"return_pct"` // net return on entry notional
	BarsHeld   int        `json:"bars_held"`
	ExitReason ExitReason `json:"exit_reason"`
}

// Win reports whether the trade closed with a positive net PnL.
func (t *Trade) Win() bool {
	return t.PnL > 0
}

// EquityPoint is one sample of the equity curve: cash plus the open position
// marked at that bar's close.
type EquityPoint struct {
	TS     time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}
