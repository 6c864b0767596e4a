package backtest

import (
	"math"

	"momentum-backtest/internal/model"
)

// finalize computes the aggregate statistics from trades and the equity curve.
func finalize(res *Result, bars []model.Bar, barsExposed int) {
	if len(res.Equity) == 0 {
		return
	}
	res.EndEquity = res.Equity[len(res.Equity)-1].Equity
	res.TotalReturnPct = (res.EndEquity - res.StartCash) / res.StartCash * 100

	if first := bars[0].Close; first > 0 {
		res.BuyHoldReturnPct = (bars[len(bars)-1].Close - first) / first * 100
	}
	res.MaxDrawdownPct = maxDrawdownPct(res.Equity)
	res.ExposurePct = float64(barsExposed) / float64(len(bars)) * 100
	res.SharpeRatio = sharpe(res.Equity, bars[0].Interval)

	if len(res.Trades) == 0 {
		return
	}

	wins := 0
	var grossProfit, grossLoss, sumReturnPct float64
	for _, t := range res.Trades {
		if t.Win() {
			wins++
			grossProfit += t.PnL
		} else {
			grossLoss -= t.PnL
		}
		sumReturnPct += t.ReturnPct
	}
	res.WinRatePct = float64(wins) / float64(len(res.Trades)) * 100
	res.AvgTradePct = sumReturnPct / float64(len(res.Trades))
	if grossLoss > 0 {
		res.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		res.ProfitFactor = math.Inf(1)
	}
}

// maxDrawdownPct returns the largest peak-to-trough equity decline in percent.
func maxDrawdownPct(equity []model.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe computes the annualized Sharpe ratio of per-bar equity returns
// (risk-free rate zero).
func sharpe(equity []model.EquityPoint, interval string) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev > 0 {
			returns = append(returns, (equity[i].Equity-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	d := model.IntervalDuration(interval)
	if d <= 0 {
		return mean / std
	}
	barsPerYear := (365 * 24 * 3600.0) / d.Seconds()
	return mean / std * math.Sqrt(barsPerYear)
}
