// Package notify delivers outbound messages through the Telegram Bot
// API. The rest of the system only sees the Notifier interface; a
// chat ID is an opaque destination string.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the bot token or the destination
// chat ID is empty. Callers that treat missing destinations as a
// silent skip check before calling Send.
var ErrNotConfigured = errors.New("notify: telegram not configured")

// Notifier sends one message to one destination. A nil error means
// the message was confirmed delivered.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Telegram is a thin client for the Bot API sendMessage method.
type Telegram struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewTelegram creates a Telegram notifier. An empty token produces a
// client whose every Send fails with ErrNotConfigured, which keeps
// the rest of the system oblivious to whether notifications are
// enabled.
func NewTelegram(token string, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{
		token:   token,
		baseURL: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// sendMessageResponse is the subset of the Bot API response we check.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one HTML-formatted message to a chat. Any transport
// error, non-2xx status or ok=false response is a failure; the caller
// decides whether and when to retry.
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	if t.token == "" || chatID == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshaling sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing sendMessage: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading sendMessage response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage returned HTTP %d: %s", resp.StatusCode, body)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding sendMessage response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("sendMessage rejected: %s", result.Description)
	}

	t.log.Debug("telegram message delivered", zap.String("chat_id", chatID))
	return nil
}
