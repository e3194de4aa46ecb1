// Package notify delivers the composed screener message to messaging sinks.
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
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/valuescreen/internal/interfaces"
)

const (
	// DefaultTelegramBaseURL is the Bot API root
	DefaultTelegramBaseURL = "https://api.telegram.org"

	// TelegramMaxMessageLength is the Bot API limit for sendMessage text
	TelegramMaxMessageLength = 4096
)

// TelegramError is a failed Bot API call
type TelegramError struct {
	StatusCode  int
	Code        int64
	Description string
}

func (e *TelegramError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram API error (status: %d)", e.StatusCode)
	}
	return fmt.Sprintf("telegram API error: %s (status: %d, code: %d)", e.Description, e.StatusCode, e.Code)
}

// Telegram sends messages through the Bot API sendMessage method
type Telegram struct {
	baseURL    string
	token      string
	parseMode  string
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.MessageSink = (*Telegram)(nil)

// TelegramOption configures the Telegram sink
type TelegramOption func(*Telegram)

// WithTelegramBaseURL sets a custom Bot API root
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(t *Telegram) {
		t.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithParseMode sets parse_mode; empty sends plain text
func WithParseMode(mode string) TelegramOption {
	return func(t *Telegram) {
		t.parseMode = mode
	}
}

// WithTelegramHTTPClient sets a custom HTTP client
func WithTelegramHTTPClient(httpClient *http.Client) TelegramOption {
	return func(t *Telegram) {
		t.httpClient = httpClient
	}
}

// NewTelegram creates a Telegram sink for the given bot token
func NewTelegram(token string, logger arbor.ILogger, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		baseURL:   DefaultTelegramBaseURL,
		token:     token,
		parseMode: "Markdown",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name returns the sink name
func (t *Telegram) Name() string {
	return "telegram"
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Send posts text to chatID. Every failure wraps interfaces.ErrMessagingFailure.
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("%w: telegram: empty chat id", interfaces.ErrMessagingFailure)
	}
	if n := utf8.RuneCountInString(text); n > TelegramMaxMessageLength {
		return fmt.Errorf("%w: telegram: message is %d characters, limit is %d",
			interfaces.ErrMessagingFailure, n, TelegramMaxMessageLength)
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: t.parseMode,
	})
	if err != nil {
		return fmt.Errorf("%w: telegram: failed to encode request: %w", interfaces.ErrMessagingFailure, err)
	}

	// The token is part of the path and must never be logged
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: telegram: failed to create request: %w", interfaces.ErrMessagingFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: telegram: %w", interfaces.ErrMessagingFailure, redactToken(err, t.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: telegram: failed to read response: %w", interfaces.ErrMessagingFailure, err)
	}

	result := gjson.ParseBytes(body)
	if resp.StatusCode != http.StatusOK || !result.Get("ok").Bool() {
		return fmt.Errorf("%w: %w", interfaces.ErrMessagingFailure, &TelegramError{
			StatusCode:  resp.StatusCode,
			Code:        result.Get("error_code").Int(),
			Description: result.Get("description").String(),
		})
	}

	if t.logger != nil {
		t.logger.Info().
			Str("chat_id", chatID).
			Int64("message_id", result.Get("result.message_id").Int()).
			Int("length", len(text)).
			Msg("Telegram message sent")
	}

	return nil
}

// redactToken strips the bot token from transport errors, which quote the request URL
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
