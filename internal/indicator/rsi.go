package indicator

import (
	"math"

	"momentum-backtest/internal/model"
)

// VolumeRSI calculates RSI over a volume-adjusted typical price.
//
// The typical price (H+L+C)/3 is scaled by the bar's volume relative to its
// trailing `length`-bar average, then standard Wilder RSI is applied to the
// adjusted series. Bars where the volume average is still warming up (or is
// zero) produce NaN and are skipped by the RSI smoothing.
func VolumeRSI(bars []model.Bar, length int) []float64 {
	adj := nanSeries(len(bars))
	if length <= 0 || len(bars) == 0 {
		return adj
	}

	vol := make([]float64, len(bars))
	for i := range bars {
		vol[i] = bars[i].Volume
	}
	volAvg := rollingMean(vol, length)

	for i := range bars {
		if !Defined(volAvg[i]) || volAvg[i] == 0 {
			continue // normalized volume undefined, propagate NaN
		}
		tp := (bars[i].High + bars[i].Low + bars[i].Close) / 3
		adj[i] = tp * (vol[i] / volAvg[i])
	}

	return wilderRSI(adj, length)
}

// wilderRSI applies Wilder-smoothed RSI (alpha = 1/length) to a series that
// may contain NaN entries. The gain/loss averages are seeded with a simple
// mean of the first `length` defined deltas; NaN entries neither advance the
// averages nor produce output.
func wilderRSI(values []float64, length int) []float64 {
	out := nanSeries(len(values))
	if length <= 0 {
		return out
	}

	prev := math.NaN()
	var avgGain, avgLoss float64
	deltas := 0
	seeded := false
	l := float64(length)

	for i, v := range values {
		if !Defined(v) {
			continue
		}
		if !Defined(prev) {
			prev = v
			continue
		}

		delta := v - prev
		prev = v

		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if !seeded {
			// Accumulation phase: build initial averages
			avgGain += gain
			avgLoss += loss
			deltas++
			if deltas < length {
				continue
			}
			avgGain /= l
			avgLoss /= l
			seeded = true
		} else {
			// Wilder's smoothing: avg = (prevAvg*(length-1) + x) / length
			avgGain = (avgGain*(l-1) + gain) / l
			avgLoss = (avgLoss*(l-1) + loss) / l
		}

		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// rsiValue maps smoothed gain/loss averages to RSI. Zero average loss means
// RSI = 100 by convention, never a division error.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
