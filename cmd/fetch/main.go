// cmd/fetch downloads historical klines from Binance and persists them
// to the local SQLite archive so backtests can run offline.
//
// Usage:
//
//	SYMBOL=BTCUSDT INTERVAL=4h FROM=2015-01-01 TO=2025-02-16 go run ./cmd/fetch
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"momentum-backtest/config"
	"momentum-backtest/internal/marketdata/binance"
	sqlitestore "momentum-backtest/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[fetch] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	writer, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[fetch] sqlite open failed: %v", err)
	}
	defer writer.Close()

	client := binance.NewClient(cfg.BinanceBaseURL)
	bars, err := client.FetchBars(ctx, cfg.Symbol, cfg.Interval, cfg.From, cfg.To)
	if err != nil {
		log.Fatalf("[fetch] download failed: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("[fetch] no bars returned for %s %s", cfg.Symbol, cfg.Interval)
	}

	if err := writer.WriteBars(ctx, bars); err != nil {
		log.Fatalf("[fetch] persist failed: %v", err)
	}

	log.Printf("[fetch] stored %d bars for %s %s (%s → %s)",
		len(bars), cfg.Symbol, cfg.Interval,
		bars[0].OpenTime.Format("2006-01-02"),
		bars[len(bars)-1].OpenTime.Format("2006-01-02"))
}
