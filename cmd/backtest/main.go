// cmd/backtest runs the volume-weighted RSI momentum strategy over a
// historical window and writes a summary, CSV exports, and an HTML
// report.
//
// Usage:
//
//	SYMBOL=BTCUSDT INTERVAL=4h go run ./cmd/backtest
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"momentum-backtest/config"
	"momentum-backtest/internal/backtest"
	"momentum-backtest/internal/logger"
	"momentum-backtest/internal/marketdata"
	"momentum-backtest/internal/marketdata/binance"
	"momentum-backtest/internal/metrics"
	"momentum-backtest/internal/model"
	"momentum-backtest/internal/report"
	redisstore "momentum-backtest/internal/store/redis"
	sqlitestore "momentum-backtest/internal/store/sqlite"
	"momentum-backtest/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	slogger := logger.Init("backtest", slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	m := metrics.NewMetrics()
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, metrics.NewHealthStatus())
		srv.Start()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 3*time.Second)
			srv.Stop(shutdownCtx)
			c()
		}()
	}

	// Storage layers
	writer, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{
		DBPath: cfg.SQLitePath,
		ObserveCommit: func(d time.Duration) {
			m.SQLiteCommitDur.Observe(d.Seconds())
		},
	})
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer writer.Close()

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[backtest] sqlite reader open failed: %v", err)
	}
	defer reader.Close()

	client := binance.NewClient(cfg.BinanceBaseURL)
	client.OnFetch = func(d time.Duration) { m.FetchDur.Observe(d.Seconds()) }

	loader := &marketdata.Loader{
		Archive: &marketdata.ArchiveAdapter{Reader: reader, Writer: writer},
		Source:  client,
		Log:     slogger,
	}
	if cfg.RedisAddr != "" {
		cache, err := redisstore.NewCache(redisstore.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[backtest] redis unavailable, continuing without cache: %v", err)
		} else {
			defer cache.Close()
			loader.Cache = cache
		}
	}

	bars, err := loader.Load(ctx, cfg.Symbol, cfg.Interval, cfg.From, cfg.To)
	if err != nil {
		log.Fatalf("[backtest] load bars: %v", err)
	}
	m.BarsFetched.Add(float64(len(bars)))

	params := strategy.Params{
		RSIPeriod:     cfg.RSIPeriod,
		SMAPeriod:     cfg.SMAPeriod,
		ATRPeriod:     cfg.ATRPeriod,
		ATRMultSL:     cfg.ATRMultSL,
		ATRMultTP:     cfg.ATRMultTP,
		BuyThreshold:  cfg.BuyThreshold,
		SellThreshold: cfg.SellThreshold,
	}

	journal, err := backtest.NewJournal(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[backtest] journal open failed: %v", err)
	}
	defer journal.Close()

	sim := backtest.NewSimulator(backtest.Config{
		Cash:       cfg.Cash,
		Commission: cfg.Commission,
	})
	sim.OnFill = func(t model.Trade) {
		m.TradesTotal.WithLabelValues(string(t.ExitReason)).Inc()
		if err := journal.RecordTrade(t); err != nil {
			log.Printf("[backtest] journal write failed: %v", err)
		}
	}
	sim.OnIntent = func(it model.Intent) {
		m.SignalsTotal.WithLabelValues(string(it.Type)).Inc()
	}
	sim.OnCompute = func(d time.Duration) {
		m.ComputeDur.Observe(d.Seconds())
	}

	res, err := sim.Run(bars, params)
	if err != nil {
		log.Fatalf("[backtest] simulation failed: %v", err)
	}

	report.PrintSummary(res)

	now := time.Now()
	htmlPath := report.ReportPath(cfg.ReportDir, now)
	if err := report.WriteHTML(res, htmlPath); err != nil {
		log.Fatalf("[backtest] write html report: %v", err)
	}
	slogger.Info("report written", slog.String("path", htmlPath))

	stamp := now.Format("20060102_150405")
	if err := report.WriteTradesCSV(res, filepath.Join(cfg.ReportDir, "trades_"+stamp+".csv")); err != nil {
		log.Printf("[backtest] write trades csv: %v", err)
	}
	if err := report.WriteEquityCSV(res, filepath.Join(cfg.ReportDir, "equity_"+stamp+".csv")); err != nil {
		log.Printf("[backtest] write equity csv: %v", err)
	}
}
