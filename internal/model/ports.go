package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the pipeline from concrete storage implementations
// (SQLite, Redis). Each implementation satisfies one or more of these ports.

// BarWriter persists historical bars.
type BarWriter interface {
	// WriteBars upserts a batch of bars in a single transaction.
	WriteBars(ctx context.Context, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}

// BarReader reads stored bars for a symbol, interval, and time range.
type BarReader interface {
	// ReadBars returns bars with OpenTime in [from, to), ordered ascending.
	ReadBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarCache is a read-through cache for fetched kline ranges.
type BarCache interface {
	// GetRange returns the cached bars for a range, or nil on a miss.
	GetRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]Bar, error)

	// PutRange caches bars for a range with the cache's TTL.
	PutRange(ctx context.Context, symbol, interval string, from, to time.Time, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}

// BarSource yields an ordered, finite bar sequence for a symbol/interval/range.
// Implemented by the Binance REST client and by store-backed loaders.
type BarSource interface {
	FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]Bar, error)
}
