package backtest

import (
	"math"
	"testing"
	"time"

	"momentum-backtest/internal/model"
	"momentum-backtest/internal/strategy"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

// smallParams warms up quickly so short synthetic datasets can signal.
func smallParams() strategy.Params {
	return strategy.Params{
		RSIPeriod:     3,
		SMAPeriod:     5,
		ATRPeriod:     3,
		ATRMultSL:     1.5,
		ATRMultTP:     5.0,
		BuyThreshold:  55,
		SellThreshold: 45,
	}
}

func mkBar(i int, open, high, low, close, volume float64) model.Bar {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Bar{
		Symbol: "TEST", Interval: "4h",
		OpenTime: ts.Add(time.Duration(i) * 4 * time.Hour),
		Open:     open, High: high, Low: low, Close: close, Volume: volume,
	}
}

// signalBars declines for ten bars (pinning RSI low), then rallies with a
// +5 jump and +1 drift. With smallParams the RSI crosses the buy threshold
// at index 10 while the close clears the SMA, so a long opens at bar 11
// and is held to the end of the data.
func signalBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		var c float64
		switch {
		case i < 10:
			c = 100 - float64(i)
		case i == 10:
			c = 96
		default:
			c = 97 + float64(i-11)
		}
		bars[i] = mkBar(i, c-0.5, c+1, c-1, c, 1000)
	}
	return bars
}

// ────────────────────────────────────────────────────────────
// Run basics
// ────────────────────────────────────────────────────────────

func TestRun_EmptyInput(t *testing.T) {
	sim := NewSimulator(Config{Cash: 1000})
	if _, err := sim.Run(nil, smallParams()); err == nil {
		t.Fatal("expected error for empty bar slice")
	}
}

func TestRun_EquityAlignedWithBars(t *testing.T) {
	bars := signalBars(22)
	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Equity) != len(bars) {
		t.Fatalf("equity length: got %d, want %d", len(res.Equity), len(bars))
	}
	if res.Bars != len(bars) {
		t.Errorf("bars: got %d, want %d", res.Bars, len(bars))
	}
	for i, p := range res.Equity {
		if math.IsNaN(p.Equity) || p.Equity < 0 {
			t.Fatalf("equity[%d] = %v, want non-negative finite", i, p.Equity)
		}
	}
}

func TestRun_NoSignals_CashUnchanged(t *testing.T) {
	// Flat prices never cross anything: equity stays at starting cash.
	bars := make([]model.Bar, 40)
	for i := range bars {
		bars[i] = mkBar(i, 100, 101, 99, 100, 1000)
	}

	sim := NewSimulator(Config{Cash: 50_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("trades: got %d, want 0", len(res.Trades))
	}
	if res.EndEquity != 50_000 {
		t.Errorf("end equity: got %.2f, want 50000", res.EndEquity)
	}
	if res.TotalReturnPct != 0 {
		t.Errorf("return: got %.4f%%, want 0", res.TotalReturnPct)
	}
}

// ────────────────────────────────────────────────────────────
// Fill mechanics
// ────────────────────────────────────────────────────────────

func TestRun_EntryFillsAtNextOpen(t *testing.T) {
	bars := signalBars(22)
	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})

	var intents []model.Intent
	sim.OnIntent = func(it model.Intent) { intents = append(intents, it) }

	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(intents) == 0 {
		t.Fatal("expected at least one intent")
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}

	first := intents[0]
	if first.Type != model.IntentOpenLong {
		t.Fatalf("first intent: got %s, want %s", first.Type, model.IntentOpenLong)
	}
	if first.BarIndex != 10 {
		t.Errorf("signal bar: got %d, want 10", first.BarIndex)
	}
	trade := res.Trades[0]
	wantEntry := bars[first.BarIndex+1]
	if !trade.EntryTime.Equal(wantEntry.OpenTime) {
		t.Errorf("entry time: got %v, want next bar %v", trade.EntryTime, wantEntry.OpenTime)
	}
	if trade.EntryPrice != wantEntry.Open {
		t.Errorf("entry price: got %.4f, want next bar open %.4f", trade.EntryPrice, wantEntry.Open)
	}
}

func TestRun_EndOfDataLiquidation(t *testing.T) {
	bars := signalBars(22)
	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected a trade")
	}

	last := res.Trades[len(res.Trades)-1]
	if last.ExitReason != model.ExitEndOfData {
		t.Fatalf("exit reason: got %s, want %s", last.ExitReason, model.ExitEndOfData)
	}
	if last.ExitPrice != bars[len(bars)-1].Close {
		t.Errorf("exit price: got %.4f, want final close %.4f", last.ExitPrice, bars[len(bars)-1].Close)
	}
	// After liquidation the last equity point is pure cash and must equal
	// the reported end equity.
	if math.Abs(res.Equity[len(res.Equity)-1].Equity-res.EndEquity) > 1e-9 {
		t.Errorf("final equity point %.4f != end equity %.4f",
			res.Equity[len(res.Equity)-1].Equity, res.EndEquity)
	}
}

func TestRun_CommissionCharged(t *testing.T) {
	bars := signalBars(22)

	free := NewSimulator(Config{Cash: 1_000_000, Commission: 0})
	paid := NewSimulator(Config{Cash: 1_000_000, Commission: 0.01})

	resFree, err := free.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	resPaid, err := paid.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(resPaid.Trades) == 0 {
		t.Fatal("expected trades with commission applied")
	}
	if resPaid.EndEquity >= resFree.EndEquity {
		t.Errorf("commission should reduce equity: paid %.2f >= free %.2f",
			resPaid.EndEquity, resFree.EndEquity)
	}
	for _, tr := range resPaid.Trades {
		if tr.Commission <= 0 {
			t.Errorf("trade commission: got %.6f, want > 0", tr.Commission)
		}
	}
}

func TestRun_StopLossFillsAtStop(t *testing.T) {
	// Open a long via the usual scenario, then trade down through the
	// stop within one bar. The stop level (91) is inside the bar's range,
	// so the exit fills exactly there.
	bars := signalBars(13)
	bars = append(bars, mkBar(13, 92, 93, 40, 45, 1000))
	for i := 14; i < 20; i++ {
		bars = append(bars, mkBar(i, 45, 46, 44, 45, 1000))
	}

	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	stop := findExit(res.Trades, model.ExitStopLoss)
	if stop == nil {
		t.Fatal("expected a stop-loss exit after the crash bar")
	}
	if stop.ExitPrice != stop.StopLoss {
		t.Errorf("stop exit price: got %.4f, want stop level %.4f", stop.ExitPrice, stop.StopLoss)
	}
	if stop.PnL >= 0 {
		t.Errorf("stop-loss trade should lose money, got pnl %.2f", stop.PnL)
	}
}

func TestRun_GapBelowStopFillsAtOpen(t *testing.T) {
	// The crash bar opens far below the stop level. The stop's price
	// never traded, so the exit fills at the open, not the stop.
	bars := signalBars(13)
	bars = append(bars, mkBar(13, 50, 51, 40, 45, 1000))
	for i := 14; i < 20; i++ {
		bars = append(bars, mkBar(i, 45, 46, 44, 45, 1000))
	}

	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	stop := findExit(res.Trades, model.ExitStopLoss)
	if stop == nil {
		t.Fatal("expected a stop-loss exit after the gap bar")
	}
	if stop.ExitPrice != 50 {
		t.Errorf("gap exit price: got %.4f, want the gap open 50 (stop level was %.4f)",
			stop.ExitPrice, stop.StopLoss)
	}
}

func TestRun_GapAboveTargetFillsAtOpen(t *testing.T) {
	// The rally bar opens above the take-profit level, so the exit fills
	// at the better open price.
	bars := signalBars(13)
	bars = append(bars, mkBar(13, 120, 125, 118, 122, 1000))
	for i := 14; i < 20; i++ {
		bars = append(bars, mkBar(i, 122, 123, 121, 122, 1000))
	}

	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	tp := findExit(res.Trades, model.ExitTakeProfit)
	if tp == nil {
		t.Fatal("expected a take-profit exit after the gap bar")
	}
	if tp.ExitPrice != 120 {
		t.Errorf("gap exit price: got %.4f, want the gap open 120 (target was %.4f)",
			tp.ExitPrice, tp.TakeProfit)
	}
	if tp.PnL <= 0 {
		t.Errorf("take-profit trade should make money, got pnl %.2f", tp.PnL)
	}
}

func findExit(trades []model.Trade, reason model.ExitReason) *model.Trade {
	for i := range trades {
		if trades[i].ExitReason == reason {
			return &trades[i]
		}
	}
	return nil
}

func TestRun_ComputeHookObserved(t *testing.T) {
	bars := signalBars(22)
	sim := NewSimulator(Config{Cash: 1_000_000})

	var calls int
	sim.OnCompute = func(d time.Duration) {
		calls++
		if d < 0 {
			t.Errorf("compute latency: got %v, want non-negative", d)
		}
	}
	if _, err := sim.Run(bars, smallParams()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute observations: got %d, want 1 per run", calls)
	}
}

// ────────────────────────────────────────────────────────────
// Stats
// ────────────────────────────────────────────────────────────

func TestMaxDrawdownPct(t *testing.T) {
	eq := func(vals ...float64) []model.EquityPoint {
		pts := make([]model.EquityPoint, len(vals))
		for i, v := range vals {
			pts[i] = model.EquityPoint{Equity: v}
		}
		return pts
	}

	// Peak 120 → trough 90 is a 25% drawdown.
	got := maxDrawdownPct(eq(100, 120, 90, 110))
	if math.Abs(got-25) > 1e-9 {
		t.Errorf("drawdown: got %.4f, want 25", got)
	}

	// Monotonic rise has zero drawdown.
	if got := maxDrawdownPct(eq(100, 110, 120)); got != 0 {
		t.Errorf("drawdown on rise: got %.4f, want 0", got)
	}
}

func TestRun_BuyHoldBaseline(t *testing.T) {
	bars := signalBars(22)
	sim := NewSimulator(Config{Cash: 1_000_000, Commission: 0.0002})
	res, err := sim.Run(bars, smallParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := (bars[len(bars)-1].Close - bars[0].Close) / bars[0].Close * 100
	if math.Abs(res.BuyHoldReturnPct-want) > 1e-9 {
		t.Errorf("buy & hold: got %.4f%%, want %.4f%%", res.BuyHoldReturnPct, want)
	}
}
