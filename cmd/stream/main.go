// cmd/stream follows the live Binance kline stream and evaluates the
// momentum strategy on each closed bar, sending signal alerts to the
// configured notification channels. No orders are placed.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"momentum-backtest/config"
	"momentum-backtest/internal/logger"
	"momentum-backtest/internal/marketdata/binance"
	"momentum-backtest/internal/marketdata/ws"
	"momentum-backtest/internal/metrics"
	"momentum-backtest/internal/model"
	"momentum-backtest/internal/notification"
	redisstore "momentum-backtest/internal/store/redis"
	sqlitestore "momentum-backtest/internal/store/sqlite"
	"momentum-backtest/internal/strategy"
)

// warmupBars is how much history the strategy replays before going live.
const warmupBars = 400

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[stream] %v", err)
	}

	slogger := logger.Init("stream", slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, health)
		srv.Start()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 3*time.Second)
			srv.Stop(shutdownCtx)
			c()
		}()
	}

	// Streamed bars extend the local archive so later backtests cover
	// the live period without a refetch.
	archive, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{
		DBPath: cfg.SQLitePath,
		ObserveCommit: func(d time.Duration) {
			m.SQLiteCommitDur.Observe(d.Seconds())
		},
	})
	if err != nil {
		log.Fatalf("[stream] sqlite open failed: %v", err)
	}
	defer archive.Close()

	var cache *redisstore.Cache
	if cfg.RedisAddr != "" {
		cache, err = redisstore.NewCache(redisstore.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[stream] redis unavailable, continuing without it: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	if cache != nil {
		health.StartLivenessChecker(ctx, cache.Client(), archive.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, archive.DB(), 30*time.Second)
	}

	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}

	params := strategy.Params{
		RSIPeriod:     cfg.RSIPeriod,
		SMAPeriod:     cfg.SMAPeriod,
		ATRPeriod:     cfg.ATRPeriod,
		ATRMultSL:     cfg.ATRMultSL,
		ATRMultTP:     cfg.ATRMultTP,
		BuyThreshold:  cfg.BuyThreshold,
		SellThreshold: cfg.SellThreshold,
	}
	momentum := strategy.NewMomentum(params)

	// Replay recent history so the indicators are warm before the first
	// live bar arrives.
	step := model.IntervalDuration(cfg.Interval)
	if step <= 0 {
		log.Fatalf("[stream] unsupported interval %q", cfg.Interval)
	}
	client := binance.NewClient(cfg.BinanceBaseURL)
	client.OnFetch = func(d time.Duration) { m.FetchDur.Observe(d.Seconds()) }
	now := time.Now().UTC()
	history, err := client.FetchBars(ctx, cfg.Symbol, cfg.Interval, now.Add(-time.Duration(warmupBars)*step), now)
	if err != nil {
		log.Fatalf("[stream] warmup fetch failed: %v", err)
	}
	for _, b := range history {
		momentum.OnBar(b)
	}
	m.BarsFetched.Add(float64(len(history)))
	if err := archive.WriteBars(ctx, history); err != nil {
		log.Printf("[stream] warmup archive write failed: %v", err)
	}
	slogger.Info("strategy warmed",
		slog.Int("bars", len(history)),
		slog.Bool("ready", momentum.Warm()))

	ingest := ws.New(ws.IngestConfig{
		Symbol:     cfg.Symbol,
		Interval:   cfg.Interval,
		ClosedOnly: true,
	})
	ingest.OnReconnect = func() {
		m.WSReconnects.Inc()
		health.SetWSConnected(false)
	}
	ingest.OnDrop = func() { m.DroppedBars.Inc() }

	barCh := make(chan model.Bar, 64)
	go func() {
		health.SetWSConnected(true)
		if err := ingest.Start(ctx, barCh); err != nil && ctx.Err() == nil {
			log.Printf("[stream] ingest stopped: %v", err)
		}
		health.SetWSConnected(false)
		close(barCh)
	}()

	for bar := range barCh {
		m.BarsStreamed.Inc()
		m.BarLag.Set(time.Since(bar.OpenTime.Add(step)).Seconds())
		health.SetLastBarTime(bar.OpenTime)

		if err := archive.WriteBars(ctx, []model.Bar{bar}); err != nil {
			log.Printf("[stream] archive write failed: %v", err)
		}
		if cache != nil {
			if err := cache.PutLatestBar(ctx, bar); err != nil {
				log.Printf("[stream] redis publish failed: %v", err)
			}
		}

		intent := momentum.OnBar(bar)
		m.SignalsTotal.WithLabelValues(string(intent.Type)).Inc()
		if intent.Type == model.IntentNone {
			continue
		}

		slogger.Info("signal",
			slog.String("type", string(intent.Type)),
			slog.String("symbol", bar.Symbol),
			slog.Float64("close", bar.Close),
			slog.String("reason", intent.Reason))

		alert := notification.SignalAlert(cfg.Symbol, bar, intent)
		for _, n := range notifiers {
			sendCtx, c := context.WithTimeout(ctx, 10*time.Second)
			if err := n.Send(sendCtx, alert); err != nil {
				log.Printf("[stream] notify failed: %v", err)
			}
			c()
		}
	}
}
