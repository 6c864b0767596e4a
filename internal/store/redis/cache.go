// Package redis caches downloaded kline ranges so that repeated runs
// against the same window skip both SQLite and the exchange REST API.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum-backtest/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultRangeTTL = 6 * time.Hour

// CacheConfig configures the Redis cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // 0 means defaultRangeTTL
}

// Cache stores bar ranges as JSON blobs keyed by symbol, interval, and window.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// NewCache creates a Redis cache and pings the server.
func NewCache(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultRangeTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client, ttl: ttl}, nil
}

// rangeKey builds the cache key for one downloaded window.
// Example: bars:BTCUSDT:4h:1420070400:1739664000
func rangeKey(symbol, interval string, from, to time.Time) string {
	return fmt.Sprintf("bars:%s:%s:%d:%d", symbol, interval, from.Unix(), to.Unix())
}

// GetRange returns the cached bars for the exact window, or nil on miss.
func (c *Cache) GetRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	data, err := c.client.Get(ctx, rangeKey(symbol, interval, from, to)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get range: %w", err)
	}

	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("unmarshal cached range: %w", err)
	}
	return bars, nil
}

// PutRange stores the bars for a window with the configured TTL.
func (c *Cache) PutRange(ctx context.Context, symbol, interval string, from, to time.Time, bars []model.Bar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("marshal range: %w", err)
	}
	if err := c.client.Set(ctx, rangeKey(symbol, interval, from, to), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set range: %w", err)
	}
	log.Printf("[redis] cached %d bars for %s %s", len(bars), symbol, interval)
	return nil
}

// PutLatestBar publishes the most recent closed bar under a well-known
// key so other processes can read the live close without a stream
// subscription. The entry expires after two intervals.
func (c *Cache) PutLatestBar(ctx context.Context, bar model.Bar) error {
	ttl := 2 * model.IntervalDuration(bar.Interval)
	if ttl <= 0 {
		ttl = c.ttl
	}
	key := fmt.Sprintf("bars:latest:%s:%s", bar.Symbol, bar.Interval)
	if err := c.client.Set(ctx, key, bar.JSON(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set latest: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
