// Package notification fans strategy signals out to delivery channels:
// the process log, a generic webhook, and Telegram.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"momentum-backtest/internal/model"
)

// AlertLevel grades an alert's urgency.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one strategy signal prepared for delivery. Entry alerts carry
// the protective levels; exit alerts leave them zero.
type Alert struct {
	Level      AlertLevel
	Symbol     string
	Intent     model.IntentType
	Price      float64 // signal bar close
	StopLoss   float64
	TakeProfit float64
	Note       string
	At         time.Time // signal bar open time
}

// Headline is the one-line summary used as the message title.
func (a Alert) Headline() string {
	switch a.Intent {
	case model.IntentOpenLong:
		return fmt.Sprintf("%s long entry @ %.2f", a.Symbol, a.Price)
	case model.IntentClose:
		return fmt.Sprintf("%s exit @ %.2f", a.Symbol, a.Price)
	default:
		return fmt.Sprintf("%s %s", a.Symbol, a.Intent)
	}
}

// Detail is the field line below the headline.
func (a Alert) Detail() string {
	if a.Intent == model.IntentOpenLong {
		return fmt.Sprintf("sl=%.2f tp=%.2f %s", a.StopLoss, a.TakeProfit, a.Note)
	}
	return a.Note
}

// SignalAlert builds an alert from a strategy intent on a live bar.
func SignalAlert(symbol string, bar model.Bar, intent model.Intent) Alert {
	return Alert{
		Level:      AlertInfo,
		Symbol:     symbol,
		Intent:     intent.Type,
		Price:      bar.Close,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		Note:       intent.Reason,
		At:         bar.OpenTime,
	}
}

// Notifier delivers alerts to one channel.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the process log. Always installed so a
// stream run with no channels configured still records its signals.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s %s", alert.Level, alert.Headline(), alert.Detail())
	return nil
}
