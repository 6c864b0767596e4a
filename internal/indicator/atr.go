package indicator

import (
	"math"

	"momentum-backtest/internal/model"
)

// ATR calculates the Average True Range with Wilder's smoothing.
//
// TR[0] falls back to high-low (no previous close). The smoothed average is
// seeded with the simple mean of the first `period` true ranges, so the first
// period-1 entries are NaN.
func ATR(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}

	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	// Seed with SMA of the first N true ranges
	var atr float64
	for i := 0; i < period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)
	out[period-1] = atr

	// Wilder's smoothing: ATR = (prevATR*(period-1) + TR) / period
	p := float64(period)
	for i := period; i < len(bars); i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}
