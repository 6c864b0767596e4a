package indicator

import "momentum-backtest/internal/model"

// SafeSMA calculates a trailing simple moving average of close prices.
//
// If fewer bars than the period are available the whole series is NaN:
// an explicit guard so short datasets degrade to "not ready" instead of
// erroring or producing partial averages.
func SafeSMA(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}

	var sum float64
	for i := range bars {
		sum += bars[i].Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
