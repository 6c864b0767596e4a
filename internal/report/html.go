package report

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"momentum-backtest/internal/backtest"
	"momentum-backtest/internal/model"
)

const chartWidth = 960
const chartHeight = 320

var pageTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Symbol}} {{.Interval}} backtest</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { font-size: 1.3rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; font-size: 0.85rem; }
th { background: #f0f0f5; }
td.l, th.l { text-align: left; }
.neg { color: #c0392b; }
.pos { color: #27ae60; }
svg { border: 1px solid #ddd; background: #fafafa; }
</style>
</head>
<body>
<h1>{{.Symbol}} {{.Interval}} &mdash; {{.Start}} to {{.End}}</h1>

<table>
<tr><th class="l">Final equity</th><td>{{printf "%.2f" .EndEquity}}</td>
<th class="l">Return</th><td>{{printf "%.2f%%" .TotalReturnPct}}</td>
<th class="l">Buy &amp; hold</th><td>{{printf "%.2f%%" .BuyHoldReturnPct}}</td></tr>
<tr><th class="l">Max drawdown</th><td>{{printf "%.2f%%" .MaxDrawdownPct}}</td>
<th class="l">Exposure</th><td>{{printf "%.2f%%" .ExposurePct}}</td>
<th class="l">Sharpe</th><td>{{printf "%.2f" .SharpeRatio}}</td></tr>
<tr><th class="l">Trades</th><td>{{.TradeCount}}</td>
<th class="l">Win rate</th><td>{{printf "%.2f%%" .WinRatePct}}</td>
<th class="l">Profit factor</th><td>{{.ProfitFactor}}</td></tr>
</table>

<h2>Equity</h2>
{{.EquitySVG}}

<h2>Trades</h2>
<table>
<tr><th class="l">Entry</th><th class="l">Exit</th><th>Entry px</th><th>Exit px</th>
<th>Qty</th><th>PnL</th><th>Return</th><th>Bars</th><th class="l">Reason</th></tr>
{{range .Trades}}
<tr>
<td class="l">{{.EntryTime}}</td>
<td class="l">{{.ExitTime}}</td>
<td>{{printf "%.2f" .EntryPrice}}</td>
<td>{{printf "%.2f" .ExitPrice}}</td>
<td>{{printf "%.6f" .Qty}}</td>
<td class="{{.PnLClass}}">{{printf "%.2f" .PnL}}</td>
<td class="{{.PnLClass}}">{{printf "%.2f%%" .ReturnPct}}</td>
<td>{{.BarsHeld}}</td>
<td class="l">{{.ExitReason}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

type htmlTrade struct {
	EntryTime  string
	ExitTime   string
	EntryPrice float64
	ExitPrice  float64
	Qty        float64
	PnL        float64
	ReturnPct  float64
	BarsHeld   int
	ExitReason string
	PnLClass   string
}

type htmlPage struct {
	Symbol           string
	Interval         string
	Start            string
	End              string
	EndEquity        float64
	TotalReturnPct   float64
	BuyHoldReturnPct float64
	MaxDrawdownPct   float64
	ExposurePct      float64
	SharpeRatio      float64
	TradeCount       int
	WinRatePct       float64
	ProfitFactor     string
	EquitySVG        template.HTML
	Trades           []htmlTrade
}

// WriteHTML renders the result to a standalone HTML file. The equity
// curve is downsampled to daily resolution before charting.
func WriteHTML(res *backtest.Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	daily := ResampleEquity(res.Equity, 24*time.Hour)
	page := htmlPage{
		Symbol:           res.Symbol,
		Interval:         res.Interval,
		Start:            res.Start.Format("2006-01-02"),
		End:              res.End.Format("2006-01-02"),
		EndEquity:        res.EndEquity,
		TotalReturnPct:   res.TotalReturnPct,
		BuyHoldReturnPct: res.BuyHoldReturnPct,
		MaxDrawdownPct:   res.MaxDrawdownPct,
		ExposurePct:      res.ExposurePct,
		SharpeRatio:      res.SharpeRatio,
		TradeCount:       len(res.Trades),
		WinRatePct:       res.WinRatePct,
		ProfitFactor:     formatFactor(res.ProfitFactor),
		EquitySVG:        equitySVG(daily),
	}
	for _, t := range res.Trades {
		class := "pos"
		if t.PnL < 0 {
			class = "neg"
		}
		page.Trades = append(page.Trades, htmlTrade{
			EntryTime:  t.EntryTime.UTC().Format("2006-01-02 15:04"),
			ExitTime:   t.ExitTime.UTC().Format("2006-01-02 15:04"),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Qty:        t.Qty,
			PnL:        t.PnL,
			ReturnPct:  t.ReturnPct,
			BarsHeld:   t.BarsHeld,
			ExitReason: string(t.ExitReason),
			PnLClass:   class,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pageTmpl.Execute(f, page)
}

// equitySVG renders the equity curve as an inline SVG polyline.
func equitySVG(points []model.EquityPoint) template.HTML {
	if len(points) < 2 {
		return template.HTML(`<svg width="960" height="320"></svg>`)
	}

	lo, hi := points[0].Equity, points[0].Equity
	for _, p := range points {
		if p.Equity < lo {
			lo = p.Equity
		}
		if p.Equity > hi {
			hi = p.Equity
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg width="%d" height="%d" viewBox="0 0 %d %d">`,
		chartWidth, chartHeight, chartWidth, chartHeight)
	fmt.Fprintf(&sb, `<polyline fill="none" stroke="#2962ff" stroke-width="1.5" points="`)
	pad := 10.0
	for i, p := range points {
		x := pad + float64(i)/float64(len(points)-1)*(chartWidth-2*pad)
		y := chartHeight - pad - (p.Equity-lo)/span*(chartHeight-2*pad)
		if math.IsNaN(y) {
			continue
		}
		fmt.Fprintf(&sb, "%.1f,%.1f ", x, y)
	}
	sb.WriteString(`"/></svg>`)
	return template.HTML(sb.String())
}
