package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Market data
	Symbol   string
	Interval string
	From     time.Time
	To       time.Time

	// Strategy parameters
	RSIPeriod     int
	SMAPeriod     int
	ATRPeriod     int
	ATRMultSL     float64
	ATRMultTP     float64
	BuyThreshold  float64
	SellThreshold float64

	// Simulation
	Cash       float64 // starting cash, quote currency
	Commission float64 // per-trade rate, e.g. 0.0002 = 2 bps

	// Infrastructure
	BinanceBaseURL string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	MetricsAddr    string
	ReportDir      string
	WebhookURL     string

	// Notifications (stream runner)
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from environment variables with sensible defaults.
// The defaults run the BTCUSDT 4h momentum study.
func Load() *Config {
	return &Config{
		Symbol:   getEnv("SYMBOL", "BTCUSDT"),
		Interval: getEnv("INTERVAL", "4h"),
		From:     dateEnv("FROM", "2015-01-01"),
		To:       dateEnv("TO", "2025-02-16"),

		RSIPeriod:     intEnv("RSI_PERIOD", 21),
		SMAPeriod:     intEnv("SMA_PERIOD", 50),
		ATRPeriod:     intEnv("ATR_PERIOD", 14),
		ATRMultSL:     floatEnv("ATR_MULT_SL", 1.5),
		ATRMultTP:     floatEnv("ATR_MULT_TP", 5.0),
		BuyThreshold:  floatEnv("BUY_THRESHOLD", 55),
		SellThreshold: floatEnv("SELL_THRESHOLD", 45),

		Cash:       floatEnv("CASH", 1_000_000),
		Commission: floatEnv("COMMISSION", 0.0002),

		BinanceBaseURL: getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/bars.db"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:    getEnv("METRICS_ADDR", ""),
		ReportDir:      getEnv("REPORT_DIR", "Backtests"),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// Validate checks parameter sanity before any data is fetched.
func (c *Config) Validate() error {
	if c.RSIPeriod <= 0 || c.SMAPeriod <= 0 || c.ATRPeriod <= 0 {
		return fmt.Errorf("config: indicator periods must be positive (rsi=%d sma=%d atr=%d)",
			c.RSIPeriod, c.SMAPeriod, c.ATRPeriod)
	}
	if c.ATRMultSL <= 0 || c.ATRMultTP <= 0 {
		return fmt.Errorf("config: ATR multipliers must be positive (sl=%g tp=%g)", c.ATRMultSL, c.ATRMultTP)
	}
	if c.BuyThreshold <= c.SellThreshold {
		return fmt.Errorf("config: buy threshold %g must exceed sell threshold %g",
			c.BuyThreshold, c.SellThreshold)
	}
	if !c.From.Before(c.To) {
		return fmt.Errorf("config: FROM %s must precede TO %s",
			c.From.Format("2006-01-02"), c.To.Format("2006-01-02"))
	}
	if c.Cash <= 0 {
		return fmt.Errorf("config: starting cash must be positive, got %g", c.Cash)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("config: commission rate must be in [0,1), got %g", c.Commission)
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s=%q, using default %g", key, v, fallback)
		return fallback
	}
	return f
}

func dateEnv(key, fallback string) time.Time {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		log.Fatalf("[config] invalid date for %s=%q (want YYYY-MM-DD): %v", key, v, err)
	}
	return t.UTC()
}
