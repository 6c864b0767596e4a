package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Symbol:        "BTCUSDT",
		Interval:      "4h",
		From:          time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		To:            time.Date(2025, 2, 16, 0, 0, 0, 0, time.UTC),
		RSIPeriod:     21,
		SMAPeriod:     50,
		ATRPeriod:     14,
		ATRMultSL:     1.5,
		ATRMultTP:     5.0,
		BuyThreshold:  55,
		SellThreshold: 45,
		Cash:          1_000_000,
		Commission:    0.0002,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rsi period", func(c *Config) { c.RSIPeriod = 0 }},
		{"negative sma period", func(c *Config) { c.SMAPeriod = -1 }},
		{"zero atr mult", func(c *Config) { c.ATRMultSL = 0 }},
		{"buy below sell", func(c *Config) { c.BuyThreshold = 40 }},
		{"buy equals sell", func(c *Config) { c.BuyThreshold = 45 }},
		{"from after to", func(c *Config) { c.From = c.To.Add(24 * time.Hour) }},
		{"zero cash", func(c *Config) { c.Cash = 0 }},
		{"negative commission", func(c *Config) { c.Commission = -0.001 }},
		{"commission of one", func(c *Config) { c.Commission = 1 }},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("RSI_PERIOD", "9")
	t.Setenv("COMMISSION", "0.001")

	cfg := Load()
	if cfg.Symbol != "ETHUSDT" {
		t.Errorf("symbol: got %s, want ETHUSDT", cfg.Symbol)
	}
	if cfg.RSIPeriod != 9 {
		t.Errorf("rsi period: got %d, want 9", cfg.RSIPeriod)
	}
	if cfg.Commission != 0.001 {
		t.Errorf("commission: got %g, want 0.001", cfg.Commission)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("SMA_PERIOD", "fifty")
	cfg := Load()
	if cfg.SMAPeriod != 50 {
		t.Errorf("sma period: got %d, want default 50", cfg.SMAPeriod)
	}
}
