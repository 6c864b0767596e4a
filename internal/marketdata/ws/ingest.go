// Package ws streams live klines from the Binance WebSocket API and
// pushes closed bars into a channel for signal evaluation.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"momentum-backtest/internal/model"

	"github.com/gorilla/websocket"
)

const defaultStreamURL = "wss://stream.binance.com:9443/ws"

// IngestConfig holds configuration for the kline stream.
type IngestConfig struct {
	StreamURL string // defaults to the Binance combined stream endpoint
	Symbol    string // e.g. "BTCUSDT"
	Interval  string // e.g. "4h"

	// Reconnect backoff. Defaults: 5 attempts, 2s initial delay, doubling.
	MaxRetries int
	RetryDelay time.Duration
	ClosedOnly bool // emit only closed klines
}

// Ingest connects to the Binance kline stream and pushes bars into barCh.
type Ingest struct {
	cfg IngestConfig

	// Optional metrics hooks
	OnReconnect func()
	OnDrop      func()
}

// New creates a new Ingest instance.
func New(cfg IngestConfig) *Ingest {
	if cfg.StreamURL == "" {
		cfg.StreamURL = defaultStreamURL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Ingest{cfg: cfg}
}

// klineEvent mirrors the Binance kline stream payload.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Symbol   string `json:"s"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// Start connects and streams bars into barCh, reconnecting with
// exponential backoff on failure. Blocks until ctx is cancelled or
// retries are exhausted.
func (ing *Ingest) Start(ctx context.Context, barCh chan<- model.Bar) error {
	stream := fmt.Sprintf("%s/%s@kline_%s",
		ing.cfg.StreamURL, strings.ToLower(ing.cfg.Symbol), ing.cfg.Interval)

	delay := ing.cfg.RetryDelay
	retries := 0
	for {
		err := ing.run(ctx, stream, barCh)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retries++
		if retries > ing.cfg.MaxRetries {
			return fmt.Errorf("ws ingest: giving up after %d attempts: %w", retries-1, err)
		}
		log.Printf("[ws] connection lost (%v), reconnecting in %v", err, delay)
		if ing.OnReconnect != nil {
			ing.OnReconnect()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (ing *Ingest) run(ctx context.Context, stream string, barCh chan<- model.Bar) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, stream, nil)
	if err != nil {
		return fmt.Errorf("ws ingest: dial: %w", err)
	}
	defer conn.Close()
	log.Printf("[ws] connected to %s", stream)

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws ingest: read: %w", err)
		}

		bar, closed, err := parseKline(data)
		if err != nil {
			log.Printf("[ws] parse error: %v", err)
			continue
		}
		if ing.cfg.ClosedOnly && !closed {
			continue
		}

		select {
		case barCh <- bar:
		default:
			log.Println("[ws] barCh full, dropping bar")
			if ing.OnDrop != nil {
				ing.OnDrop()
			}
		}
	}
}

// parseKline converts a raw kline event into a model.Bar.
func parseKline(data []byte) (model.Bar, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.Bar{}, false, err
	}
	if ev.EventType != "kline" {
		return model.Bar{}, false, fmt.Errorf("unexpected event %q", ev.EventType)
	}

	b := model.Bar{
		Symbol:   ev.Kline.Symbol,
		Interval: ev.Kline.Interval,
		OpenTime: time.UnixMilli(ev.Kline.OpenTime).UTC(),
	}
	var err error
	if b.Open, err = strconv.ParseFloat(ev.Kline.Open, 64); err != nil {
		return model.Bar{}, false, fmt.Errorf("open: %w", err)
	}
	if b.High, err = strconv.ParseFloat(ev.Kline.High, 64); err != nil {
		return model.Bar{}, false, fmt.Errorf("high: %w", err)
	}
	if b.Low, err = strconv.ParseFloat(ev.Kline.Low, 64); err != nil {
		return model.Bar{}, false, fmt.Errorf("low: %w", err)
	}
	if b.Close, err = strconv.ParseFloat(ev.Kline.Close, 64); err != nil {
		return model.Bar{}, false, fmt.Errorf("close: %w", err)
	}
	if b.Volume, err = strconv.ParseFloat(ev.Kline.Volume, 64); err != nil {
		return model.Bar{}, false, fmt.Errorf("volume: %w", err)
	}
	return b, ev.Kline.Closed, nil
}
