package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"momentum-backtest/internal/model"
)

// TelegramNotifier delivers signals through the Telegram Bot API as
// MarkdownV2 messages.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier.
// botToken comes from @BotFather; chatID is the target chat or channel.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       telegramText(alert),
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: status %d", resp.StatusCode)
	}
	return nil
}

// telegramText renders a signal-specific MarkdownV2 message: marker and
// headline, protective levels for entries, the rule that fired.
func telegramText(a Alert) string {
	marker := "🔔"
	switch a.Intent {
	case model.IntentOpenLong:
		marker = "🟢"
	case model.IntentClose:
		marker = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*", marker, escapeMD(a.Headline()))
	if a.Intent == model.IntentOpenLong {
		fmt.Fprintf(&b, "\nstop %s, target %s",
			escapeMD(fmt.Sprintf("%.2f", a.StopLoss)),
			escapeMD(fmt.Sprintf("%.2f", a.TakeProfit)))
	}
	if a.Note != "" {
		fmt.Fprintf(&b, "\n%s", escapeMD(a.Note))
	}
	return b.String()
}

// escapeMD backslash-escapes MarkdownV2 special characters.
func escapeMD(s string) string {
	const specials = "_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
