package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"momentum-backtest/internal/model"
)

func tempWriter(t *testing.T, cfg WriterConfig) *Writer {
	t.Helper()
	cfg.DBPath = filepath.Join(t.TempDir(), "bars.db")
	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func seqBars(n int, from time.Time) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{
			Symbol: "BTCUSDT", Interval: "4h",
			OpenTime: from.Add(time.Duration(i) * 4 * time.Hour),
			Open:     100, High: 101, Low: 99, Close: 100, Volume: 10,
		}
	}
	return bars
}

func TestWriteBars_ObservesEachBatchCommit(t *testing.T) {
	var commits int
	w := tempWriter(t, WriterConfig{
		ObserveCommit: func(d time.Duration) {
			commits++
			if d < 0 {
				t.Errorf("commit latency: got %v, want non-negative", d)
			}
		},
	})

	// 600 bars split into two batches of 500 and 100.
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := w.WriteBars(context.Background(), seqBars(600, from)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if commits != 2 {
		t.Errorf("commit observations: got %d, want 2", commits)
	}

	last, err := w.GetLastTimestamp("BTCUSDT", "4h")
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if want := from.Add(599 * 4 * time.Hour).Unix(); last != want {
		t.Errorf("last ts: got %d, want %d", last, want)
	}
}
