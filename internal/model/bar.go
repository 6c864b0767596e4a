// Package model defines the market data and signal types shared across the
// backtest pipeline: bars, indicator series, intents, positions, and trades.
package model

import (
	"encoding/json"
	"time"
)

// Bar represents one OHLCV candle for a symbol and interval.
// Bars form an ordered sequence with strictly increasing OpenTime.
type Bar struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"` // bucket start (UTC, interval-aligned)
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Key returns a unique key for this bar's series: "symbol:interval".
func (b *Bar) Key() string {
	return b.Symbol + ":" + b.Interval
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// IndicatorSeries holds the three indicator series computed from a bar
// sequence. All slices have exactly len(bars) entries; values before an
// indicator's warm-up length are NaN.
type IndicatorSeries struct {
	RSI []float64
	SMA []float64
	ATR []float64
}

// Len returns the common length of the series (they are always aligned).
func (s *IndicatorSeries) Len() int {
	return len(s.SMA)
}

// IntervalDuration maps a Binance-style interval string ("1m", "4h", "1d")
// to its duration. Returns 0 for unknown intervals.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "6h":
		return 6 * time.Hour
	case "8h":
		return 8 * time.Hour
	case "12h":
		return 12 * time.Hour
	case "1d":
		return 24 * time.Hour
	case "3d":
		return 72 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}
