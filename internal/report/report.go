// Package report renders backtest results as a console summary, CSV
// exports, and a standalone HTML page with an inline SVG equity chart.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"momentum-backtest/internal/backtest"
)

// PrintSummary writes a boxed result summary to stdout.
func PrintSummary(res *backtest.Result) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║             BACKTEST COMPLETE                ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Symbol:            %-24s ║\n", res.Symbol+" "+res.Interval)
	fmt.Printf("║  Period:            %-24s ║\n",
		res.Start.Format("2006-01-02")+" → "+res.End.Format("2006-01-02"))
	fmt.Printf("║  Bars:              %-24d ║\n", res.Bars)
	fmt.Printf("║  Final equity:      %-24s ║\n", fmt.Sprintf("%.2f", res.EndEquity))
	fmt.Printf("║  Return:            %-24s ║\n", fmt.Sprintf("%.2f%%", res.TotalReturnPct))
	fmt.Printf("║  Buy & hold:        %-24s ║\n", fmt.Sprintf("%.2f%%", res.BuyHoldReturnPct))
	fmt.Printf("║  Max drawdown:      %-24s ║\n", fmt.Sprintf("%.2f%%", res.MaxDrawdownPct))
	fmt.Printf("║  Exposure:          %-24s ║\n", fmt.Sprintf("%.2f%%", res.ExposurePct))
	fmt.Printf("║  Trades:            %-24d ║\n", len(res.Trades))
	fmt.Printf("║  Win rate:          %-24s ║\n", fmt.Sprintf("%.2f%%", res.WinRatePct))
	fmt.Printf("║  Profit factor:     %-24s ║\n", formatFactor(res.ProfitFactor))
	fmt.Printf("║  Sharpe:            %-24s ║\n", fmt.Sprintf("%.2f", res.SharpeRatio))
	fmt.Println("╚══════════════════════════════════════════════╝")
}

func formatFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	if math.IsNaN(pf) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", pf)
}

// WriteTradesCSV exports the trade list to a CSV file.
func WriteTradesCSV(res *backtest.Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"symbol", "entry_time", "exit_time", "entry_price", "exit_price",
		"qty", "stop_loss", "take_profit", "commission", "pnl", "return_pct",
		"bars_held", "exit_reason"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range res.Trades {
		row := []string{
			t.Symbol,
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.Qty, 'f', -1, 64),
			strconv.FormatFloat(t.StopLoss, 'f', -1, 64),
			strconv.FormatFloat(t.TakeProfit, 'f', -1, 64),
			strconv.FormatFloat(t.Commission, 'f', -1, 64),
			strconv.FormatFloat(t.PnL, 'f', -1, 64),
			strconv.FormatFloat(t.ReturnPct, 'f', -1, 64),
			strconv.Itoa(t.BarsHeld),
			string(t.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCSV exports the equity curve to a CSV file.
func WriteEquityCSV(res *backtest.Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ts", "equity"}); err != nil {
		return err
	}
	for _, p := range res.Equity {
		row := []string{
			p.TS.UTC().Format(time.RFC3339),
			strconv.FormatFloat(p.Equity, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ReportPath builds a timestamped HTML output path under dir, matching
// the backtest_result_<timestamp>.html naming convention.
func ReportPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("backtest_result_%s.html", now.Format("20060102_150405")))
}
