package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

const telegramAPI = "https://api.telegram.org"

// TelegramSink delivers events via the Telegram Bot API.
type TelegramSink struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramSink creates a TelegramSink for the given bot token and chat
// ID. It uses a default HTTP client with a 10-second timeout.
func NewTelegramSink(token, chatID string) *TelegramSink {
	return &TelegramSink{
		apiBase: telegramAPI,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Record posts the event to the configured chat using the sendMessage API.
func (t *TelegramSink) Record(ctx context.Context, ev domain.Event) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.apiBase, "/"), t.token)

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("*%s*\n%s", Title(ev), Body(ev)),
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sink identifier.
func (t *TelegramSink) Name() string {
	return "telegram"
}

var _ domain.EventSink = (*TelegramSink)(nil)
