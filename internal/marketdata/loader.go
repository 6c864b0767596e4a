// Package marketdata loads historical bars for a backtest window,
// checking the Redis range cache, then the SQLite archive, then the
// exchange REST API.
package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"momentum-backtest/internal/model"
)

// MinBars is the minimum history length a backtest window must yield.
// Shorter datasets cannot warm up the indicators and are rejected.
const MinBars = 200

// Loader resolves a bar window through cache, archive, and source layers.
// Cache and archive layers are optional; Source is required.
type Loader struct {
	Cache   model.BarCache  // optional
	Archive *ArchiveAdapter // optional
	Source  model.BarSource

	Log *slog.Logger
}

// ArchiveAdapter pairs a SQLite reader and writer so the loader can
// both backfill from and persist to the local archive.
type ArchiveAdapter struct {
	Reader model.BarReader
	Writer model.BarWriter
}

// Load returns bars for symbol/interval in [from, to). It errors when
// the resolved window holds fewer than MinBars bars.
func (l *Loader) Load(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	bars, err := l.resolve(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) < MinBars {
		return nil, fmt.Errorf("received %d bars for %s %s, but %d are required", len(bars), symbol, interval, MinBars)
	}
	return bars, nil
}

func (l *Loader) resolve(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	if l.Cache != nil {
		bars, err := l.Cache.GetRange(ctx, symbol, interval, from, to)
		if err != nil {
			l.logw("cache read failed", err)
		} else if len(bars) > 0 {
			l.logi("loaded bars from cache", len(bars))
			return bars, nil
		}
	}

	if l.Archive != nil && l.Archive.Reader != nil {
		bars, err := l.Archive.Reader.ReadBars(ctx, symbol, interval, from, to)
		if err != nil {
			l.logw("archive read failed", err)
		} else if l.covers(bars, interval, from, to) {
			l.logi("loaded bars from archive", len(bars))
			l.cachePut(ctx, symbol, interval, from, to, bars)
			return bars, nil
		}
	}

	bars, err := l.Source.FetchBars(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	l.logi("downloaded bars from source", len(bars))

	if l.Archive != nil && l.Archive.Writer != nil {
		if err := l.Archive.Writer.WriteBars(ctx, bars); err != nil {
			l.logw("archive write failed", err)
		}
	}
	l.cachePut(ctx, symbol, interval, from, to, bars)
	return bars, nil
}

// covers reports whether the archived bars plausibly span the whole
// window. A partial archive (e.g. an interrupted download) forces a
// fresh fetch rather than silently backtesting a truncated dataset.
func (l *Loader) covers(bars []model.Bar, interval string, from, to time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	step := model.IntervalDuration(interval)
	if step <= 0 {
		return false
	}
	first := bars[0].OpenTime
	last := bars[len(bars)-1].OpenTime
	// The first bar opens within two steps of `from` and the final bar
	// opens at most one step before `to`. A head- or tail-truncated
	// archive must not masquerade as the full window.
	if first.Sub(from) > 2*step {
		return false
	}
	if last.Add(2 * step).Before(to) {
		return false
	}
	// The count has to roughly fill the window. Exchanges drop the odd
	// kline during maintenance, so allow a small shortfall.
	expected := int(to.Sub(first) / step)
	return expected <= 0 || len(bars) >= expected*9/10
}

func (l *Loader) cachePut(ctx context.Context, symbol, interval string, from, to time.Time, bars []model.Bar) {
	if l.Cache == nil || len(bars) == 0 {
		return
	}
	if err := l.Cache.PutRange(ctx, symbol, interval, from, to, bars); err != nil {
		l.logw("cache write failed", err)
	}
}

func (l *Loader) logi(msg string, count int) {
	if l.Log != nil {
		l.Log.Info(msg, slog.Int("bars", count))
	}
}

func (l *Loader) logw(msg string, err error) {
	if l.Log != nil {
		l.Log.Warn(msg, slog.String("error", err.Error()))
	}
}
