package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier POSTs the structured signal as JSON to one endpoint,
// for wiring into chat relays or a downstream order router.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier for the given endpoint.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// signalPayload is the wire shape of one alert.
type signalPayload struct {
	Level      string  `json:"level"`
	Symbol     string  `json:"symbol"`
	Intent     string  `json:"intent"`
	Price      float64 `json:"price"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	Note       string  `json:"note,omitempty"`
	BarTime    string  `json:"bar_time"`
	SentAt     string  `json:"sent_at"`
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(signalPayload{
		Level:      string(alert.Level),
		Symbol:     alert.Symbol,
		Intent:     string(alert.Intent),
		Price:      alert.Price,
		StopLoss:   alert.StopLoss,
		TakeProfit: alert.TakeProfit,
		Note:       alert.Note,
		BarTime:    alert.At.UTC().Format(time.RFC3339),
		SentAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d from %s", resp.StatusCode, w.url)
	}
	return nil
}
