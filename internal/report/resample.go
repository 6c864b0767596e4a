package report

import (
	"time"

	"momentum-backtest/internal/model"
)

// ResampleBars aggregates bars into larger buckets (e.g. 4h bars into 1d)
// for charting. Each bucket keeps the first open, max high, min low, last
// close, and summed volume. Bars are assumed sorted by open time ascending.
func ResampleBars(bars []model.Bar, bucket time.Duration) []model.Bar {
	if len(bars) == 0 || bucket <= 0 {
		return nil
	}

	var out []model.Bar
	var cur model.Bar
	var curBucket int64 = -1
	started := false

	sec := int64(bucket / time.Second)
	for _, b := range bars {
		bkt := b.OpenTime.Unix() - b.OpenTime.Unix()%sec
		if bkt != curBucket {
			if started {
				out = append(out, cur)
			}
			cur = b
			cur.OpenTime = time.Unix(bkt, 0).UTC()
			cur.Interval = bucket.String()
			curBucket = bkt
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}

// ResampleEquity downsamples an equity curve to one point per bucket,
// keeping the last equity value in each bucket.
func ResampleEquity(points []model.EquityPoint, bucket time.Duration) []model.EquityPoint {
	if len(points) == 0 || bucket <= 0 {
		return nil
	}

	var out []model.EquityPoint
	var cur model.EquityPoint
	var curBucket int64 = -1
	started := false

	sec := int64(bucket / time.Second)
	for _, p := range points {
		bkt := p.TS.Unix() - p.TS.Unix()%sec
		if bkt != curBucket {
			if started {
				out = append(out, cur)
			}
			curBucket = bkt
			started = true
		}
		cur = model.EquityPoint{TS: time.Unix(bkt, 0).UTC(), Equity: p.Equity}
	}
	if started {
		out = append(out, cur)
	}
	return out
}
