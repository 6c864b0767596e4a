// Package binance downloads historical klines from the Binance public
// REST API in 1000-bar chunks.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"momentum-backtest/internal/model"
)

const (
	// Binance caps /api/v3/klines at 1000 rows per request.
	maxKlinesPerRequest = 1000

	// Pause between chunk requests to stay well under REST rate limits.
	requestInterval = 250 * time.Millisecond
)

// Client fetches klines from the Binance REST API.
type Client struct {
	baseURL string
	http    *http.Client

	// OnFetch, when set, observes the latency of each chunk request.
	OnFetch func(d time.Duration)
}

// NewClient creates a Binance REST client. baseURL is normally
// "https://api.binance.com"; tests point it at a local server.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchBars downloads all klines for symbol/interval in [from, to),
// paging through the API in 1000-bar chunks. Bars are returned in
// ascending open-time order.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	step := model.IntervalDuration(interval)
	if step <= 0 {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	var bars []model.Bar
	cursor := from
	for cursor.Before(to) {
		chunk, err := c.fetchChunk(ctx, symbol, interval, cursor, to)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		bars = append(bars, chunk...)

		last := chunk[len(chunk)-1].OpenTime
		cursor = last.Add(step)

		if len(chunk) < maxKlinesPerRequest {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(requestInterval):
		}
	}

	log.Printf("[binance] fetched %d bars for %s %s (%s → %s)",
		len(bars), symbol, interval, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return bars, nil
}

func (c *Client) fetchChunk(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	if c.OnFetch != nil {
		start := time.Now()
		defer func() { c.OnFetch(time.Since(start)) }()
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(to.UnixMilli()-1, 10))
	q.Set("limit", strconv.Itoa(maxKlinesPerRequest))

	reqURL := c.baseURL + "/api/v3/klines?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("klines status %d: %s", resp.StatusCode, body)
	}

	// Each kline is a JSON array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			return nil, fmt.Errorf("malformed kline row with %d fields", len(k))
		}
		var openMs int64
		if err := json.Unmarshal(k[0], &openMs); err != nil {
			return nil, fmt.Errorf("kline open time: %w", err)
		}
		b := model.Bar{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(openMs).UTC(),
		}
		fields := []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
		for i, dst := range fields {
			var s string
			if err := json.Unmarshal(k[i+1], &s); err != nil {
				return nil, fmt.Errorf("kline field %d: %w", i+1, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline field %d: %w", i+1, err)
			}
			*dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}
