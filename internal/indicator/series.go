// Package indicator provides technical indicator calculations over bar data.
//
// All functions are pure: they map an input bar sequence to an output series
// of the same length. Entries before an indicator's warm-up length are NaN,
// never an error. Length equality with the input is preserved so that
// downstream indexing stays aligned.
package indicator

import "math"

// Defined reports whether a series value is usable (not NaN).
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// nanSeries returns a series of n NaN entries.
func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// rollingMean computes a trailing simple mean with the given window, NaN for
// the first window-1 entries. Input NaNs are not expected here.
func rollingMean(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// CrossOver reports whether series crosses above the threshold at index i:
// series[i-1] <= threshold && series[i] > threshold. Equality is non-crossing.
// False when i == 0 or either value is NaN (NaN comparisons are false).
func CrossOver(series []float64, threshold float64, i int) bool {
	if i <= 0 || i >= len(series) {
		return false
	}
	return series[i-1] <= threshold && series[i] > threshold
}

// CrossUnder reports whether series crosses below the threshold at index i:
// series[i-1] >= threshold && series[i] < threshold.
func CrossUnder(series []float64, threshold float64, i int) bool {
	if i <= 0 || i >= len(series) {
		return false
	}
	return series[i-1] >= threshold && series[i] < threshold
}
