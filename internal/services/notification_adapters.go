package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samuq/backend/internal/config"
	"github.com/samuq/backend/internal/utils"
	"github.com/samuq/backend/pkg/logger"
)

// Transport delivers one plain-text message to one recipient.
// For Telegram the recipient is a chat id; for the webhook based transports it is the webhook URL.
type Transport interface {
	Send(ctx context.Context, recipient, text string) error
}

const (
	TransportTelegram = "telegram"
	TransportWebhook  = "webhook"
	TransportSlack    = "slack"
	TransportDiscord  = "discord"
)

// NotificationTimeout bounds every outbound call.
const NotificationTimeout = 10 * time.Second

// NewTransport builds the transport named in the config. Telegram needs a bot token;
// the webhook transports take their endpoints from the recipient list.
func NewTransport(cfg *config.TelegramConfig) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", TransportTelegram:
		token := strings.TrimSpace(cfg.BotToken)
		if token == "" {
			return nil, errTelegramNotConfigured
		}
		return NewTelegramTransport(cfg.BaseURL, token), nil
	case TransportWebhook:
		return &webhookTransport{client: newNotificationClient(""), field: "text"}, nil
	case TransportSlack:
		return &webhookTransport{client: newNotificationClient(""), field: "text"}, nil
	case TransportDiscord:
		return &webhookTransport{client: newNotificationClient(""), field: "content"}, nil
	default:
		return nil, &ServiceError{Kind: ErrKindConfig, Message: fmt.Sprintf("unknown notification transport %q", cfg.Transport)}
	}
}

var errTelegramNotConfigured = &ServiceError{
	Kind:    ErrKindConfig,
	Message: "Telegram não configurado (defina TELEGRAM_BOT_TOKEN e TELEGRAM_CHAT_ID(S)).",
}

func isTelegram(transport string) bool {
	t := strings.ToLower(strings.TrimSpace(transport))
	return t == "" || t == TransportTelegram
}

// maxMessageLength is the chunk size used for a transport.
func maxMessageLength(transport string) int {
	if strings.EqualFold(transport, TransportDiscord) {
		return 1900
	}
	return DefaultMaxMessageLength
}

func newNotificationClient(baseURL string) *resty.Client {
	client := resty.New().
		SetTimeout(NotificationTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if baseURL != "" {
		client.SetBaseURL(baseURL)
	}
	return client
}

// postJSON sends payload and turns any non-2xx answer into an error carrying the start of the body.
func postJSON(ctx context.Context, client *resty.Client, url string, payload interface{}, okStatus func(int) bool) error {
	resp, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return &ServiceError{Kind: ErrKindTransport, Message: "notification request failed", Err: err}
	}
	if !okStatus(resp.StatusCode()) {
		logger.Warn().Int("status", resp.StatusCode()).Msg("[Notification] Unexpected response")
		return &ServiceError{
			Kind:    ErrKindTransport,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), utils.Truncate(resp.String(), 300)),
		}
	}
	return nil
}

// TelegramTransport calls the Bot API sendMessage method.
type TelegramTransport struct {
	client *resty.Client
	token  string
}

func NewTelegramTransport(baseURL, token string) *TelegramTransport {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramTransport{client: newNotificationClient(strings.TrimRight(baseURL, "/")), token: token}
}

func (t *TelegramTransport) Send(ctx context.Context, chatID, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	return postJSON(ctx, t.client, "/bot"+t.token+"/sendMessage", payload, func(code int) bool {
		return code == http.StatusOK
	})
}

// webhookTransport posts {field: text} to the recipient URL (generic JSON hooks, Slack, Discord).
type webhookTransport struct {
	client *resty.Client
	field  string
}

func (w *webhookTransport) Send(ctx context.Context, url, text string) error {
	payload := map[string]string{w.field: text}
	return postJSON(ctx, w.client, url, payload, func(code int) bool {
		return code >= 200 && code < 300
	})
}
