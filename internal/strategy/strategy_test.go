package strategy

import (
	"math"
	"testing"
	"time"

	"momentum-backtest/internal/indicator"
	"momentum-backtest/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

// testParams keeps ATR multipliers simple so stop/target math is
// checkable by eye.
func testParams() Params {
	return Params{
		RSIPeriod:     21,
		SMAPeriod:     50,
		ATRPeriod:     14,
		ATRMultSL:     1.5,
		ATRMultTP:     5.0,
		BuyThreshold:  55,
		SellThreshold: 45,
	}
}

// seriesOf builds an aligned indicator series from parallel slices.
func seriesOf(rsi, sma, atr []float64) *model.IndicatorSeries {
	return &model.IndicatorSeries{RSI: rsi, SMA: sma, ATR: atr}
}

func closeBars(closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.Bar{
			Symbol: "TEST", Interval: "4h", OpenTime: ts.Add(time.Duration(i) * 4 * time.Hour),
			Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return bars
}

// ────────────────────────────────────────────────────────────
// Entry rule
// ────────────────────────────────────────────────────────────

func TestEvaluate_EntrySignal(t *testing.T) {
	// RSI crosses 50→60 over the buy threshold while the close (105) is
	// above the SMA (100). ATR is 2, so SL = 105 - 1.5*2 = 102 and
	// TP = 105 + 5*2 = 115.
	bars := closeBars(104, 105)
	series := seriesOf(
		[]float64{50, 60},
		[]float64{100, 100},
		[]float64{2, 2},
	)

	intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
	if intent.Type != model.IntentOpenLong {
		t.Fatalf("intent type: got %s, want %s", intent.Type, model.IntentOpenLong)
	}
	if intent.BarIndex != 1 {
		t.Errorf("bar index: got %d, want 1", intent.BarIndex)
	}
	if math.Abs(intent.StopLoss-102) > 1e-9 {
		t.Errorf("stop loss: got %.4f, want 102", intent.StopLoss)
	}
	if math.Abs(intent.TakeProfit-115) > 1e-9 {
		t.Errorf("take profit: got %.4f, want 115", intent.TakeProfit)
	}
}

func TestEvaluate_NoEntryBelowSMA(t *testing.T) {
	// Same RSI crossover but the close sits below the SMA: no entry.
	bars := closeBars(104, 105)
	series := seriesOf(
		[]float64{50, 60},
		[]float64{200, 200},
		[]float64{2, 2},
	)

	intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
	if intent.Type != model.IntentNone {
		t.Errorf("intent type: got %s, want %s", intent.Type, model.IntentNone)
	}
}

func TestEvaluate_NoEntryWhileLong(t *testing.T) {
	// A valid entry setup must be ignored when already long.
	bars := closeBars(104, 105)
	series := seriesOf(
		[]float64{50, 60},
		[]float64{100, 100},
		[]float64{2, 2},
	)

	pos := model.PositionState{Long: true, EntryPrice: 100}
	intent := Evaluate(bars, series, pos, 1, testParams())
	if intent.Type != model.IntentNone {
		t.Errorf("intent type: got %s, want %s", intent.Type, model.IntentNone)
	}
}

func TestEvaluate_NoEntryOnEqualThreshold(t *testing.T) {
	// RSI landing exactly on the threshold is not a crossing.
	bars := closeBars(104, 105)
	series := seriesOf(
		[]float64{50, 55},
		[]float64{100, 100},
		[]float64{2, 2},
	)

	intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
	if intent.Type != model.IntentNone {
		t.Errorf("intent type: got %s, want %s", intent.Type, model.IntentNone)
	}
}

// ────────────────────────────────────────────────────────────
// Exit rule
// ────────────────────────────────────────────────────────────

func TestEvaluate_ExitSignal(t *testing.T) {
	// Long position, RSI crosses 50→40 under the sell threshold.
	bars := closeBars(104, 103)
	series := seriesOf(
		[]float64{50, 40},
		[]float64{100, 100},
		[]float64{2, 2},
	)

	pos := model.PositionState{Long: true, EntryPrice: 100}
	intent := Evaluate(bars, series, pos, 1, testParams())
	if intent.Type != model.IntentClose {
		t.Fatalf("intent type: got %s, want %s", intent.Type, model.IntentClose)
	}
}

func TestEvaluate_NoExitWhileFlat(t *testing.T) {
	bars := closeBars(104, 103)
	series := seriesOf(
		[]float64{50, 40},
		[]float64{100, 100},
		[]float64{2, 2},
	)

	intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
	if intent.Type != model.IntentNone {
		t.Errorf("intent type: got %s, want %s", intent.Type, model.IntentNone)
	}
}

// ────────────────────────────────────────────────────────────
// Warm-up gate
// ────────────────────────────────────────────────────────────

func TestEvaluate_GateBlocksUndefinedIndicators(t *testing.T) {
	nan := math.NaN()
	bars := closeBars(104, 105)

	cases := []struct {
		name string
		sma  []float64
		atr  []float64
	}{
		{"sma undefined", []float64{nan, nan}, []float64{2, 2}},
		{"atr undefined", []float64{100, 100}, []float64{nan, nan}},
	}
	for _, tc := range cases {
		series := seriesOf([]float64{50, 60}, tc.sma, tc.atr)
		intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
		if intent.Type != model.IntentNone {
			t.Errorf("%s: got %s, want %s", tc.name, intent.Type, model.IntentNone)
		}
	}
}

func TestEvaluate_UndefinedRSINeverSignals(t *testing.T) {
	// The gate intentionally excludes RSI: with SMA and ATR defined but
	// RSI still NaN, the crossover check fails on its own.
	nan := math.NaN()
	bars := closeBars(104, 105)
	series := seriesOf([]float64{nan, nan}, []float64{100, 100}, []float64{2, 2})

	intent := Evaluate(bars, series, model.PositionState{}, 1, testParams())
	if intent.Type != model.IntentNone {
		t.Errorf("intent type: got %s, want %s", intent.Type, model.IntentNone)
	}
}

func TestReady_WarmupBoundaryOnComputedSeries(t *testing.T) {
	// 150 bars through the real indicator pipeline with the stock
	// 21/50/14 periods. The SMA is the last indicator to warm up, so the
	// gate opens exactly at index 49 and stays open to the end.
	bars := make([]model.Bar, 150)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/7)
		bars[i] = model.Bar{
			Symbol: "TEST", Interval: "4h", OpenTime: ts.Add(time.Duration(i) * 4 * time.Hour),
			Open: c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000 + float64(i%13)*50,
		}
	}
	series := indicator.Compute(bars, 21, 50, 14)

	for i := range bars {
		want := i >= 49
		if got := Ready(&series, i); got != want {
			t.Fatalf("Ready(%d): got %v, want %v", i, got, want)
		}
	}
}

func TestEvaluate_OutOfRangeIndex(t *testing.T) {
	bars := closeBars(104, 105)
	series := seriesOf([]float64{50, 60}, []float64{100, 100}, []float64{2, 2})

	for _, i := range []int{-1, 2, 99} {
		intent := Evaluate(bars, series, model.PositionState{}, i, testParams())
		if intent.Type != model.IntentNone {
			t.Errorf("index %d: got %s, want %s", i, intent.Type, model.IntentNone)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Streaming state machine
// ────────────────────────────────────────────────────────────

func TestMomentum_StateMonotonicity(t *testing.T) {
	// Feed a jagged series through the streaming evaluator and verify
	// the intent sequence is always legal: OPEN only while flat, CLOSE
	// only while long, at most one intent per bar.
	m := NewMomentum(Params{
		RSIPeriod:     5,
		SMAPeriod:     8,
		ATRPeriod:     5,
		ATRMultSL:     1.5,
		ATRMultTP:     5.0,
		BuyThreshold:  55,
		SellThreshold: 45,
	})

	price := 100.0
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	long := false
	for i := 0; i < 400; i++ {
		// Sawtooth with drift so both thresholds get crossed repeatedly.
		if (i/10)%2 == 0 {
			price += 2.0
		} else {
			price -= 1.7
		}
		b := model.Bar{
			Symbol: "TEST", Interval: "4h", OpenTime: ts.Add(time.Duration(i) * 4 * time.Hour),
			Open: price, High: price + 2, Low: price - 2, Close: price,
			Volume: 1000 + float64(i%5)*100,
		}

		intent := m.OnBar(b)
		switch intent.Type {
		case model.IntentOpenLong:
			if long {
				t.Fatalf("bar %d: OPEN_LONG while already long", i)
			}
			long = true
		case model.IntentClose:
			if !long {
				t.Fatalf("bar %d: CLOSE_LONG while flat", i)
			}
			long = false
		case model.IntentNone:
			// fine
		default:
			t.Fatalf("bar %d: unknown intent %q", i, intent.Type)
		}

		if m.Position().Long != long {
			t.Fatalf("bar %d: position state diverged from intents", i)
		}
	}
}

func TestMomentum_Warm(t *testing.T) {
	p := Params{RSIPeriod: 5, SMAPeriod: 8, ATRPeriod: 5, ATRMultSL: 1.5, ATRMultTP: 5, BuyThreshold: 55, SellThreshold: 45}
	m := NewMomentum(p)
	if m.Warm() {
		t.Fatal("fresh evaluator must not be warm")
	}

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		m.OnBar(model.Bar{
			Symbol: "TEST", Interval: "4h", OpenTime: ts.Add(time.Duration(i) * 4 * time.Hour),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000,
		})
	}
	if !m.Warm() {
		t.Fatal("evaluator should be warm after SMA period bars")
	}
}
