package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samuq/backend/internal/config"
	"github.com/samuq/backend/pkg/logger"
)

// DefaultMaxMessageLength keeps every part well under Telegram's 4096 character limit.
const DefaultMaxMessageLength = 3500

const defaultSendFailure = "Falha ao enviar notificação."

// SendResult is the outcome of delivering one message to every recipient.
type SendResult struct {
	OK     bool     `json:"ok"`
	SentTo []string `json:"sent_to"`
	Error  string   `json:"error,omitempty"`
}

// NotificationGateway delivers a message, split into parts when needed, to each recipient.
// It never retries and never returns an error: failures end up in SendResult.Error.
type NotificationGateway struct {
	transport  Transport
	recipients []string
	maxLen     int
	timeout    time.Duration
	configErr  string
}

func NewNotificationGateway(transport Transport, recipients []string) *NotificationGateway {
	return &NotificationGateway{
		transport:  transport,
		recipients: recipients,
		maxLen:     DefaultMaxMessageLength,
		timeout:    NotificationTimeout,
	}
}

// NewNotificationGatewayFromConfig wires the configured transport and recipients.
// A configuration problem does not fail here; it is reported by every Send.
func NewNotificationGatewayFromConfig(cfg *config.TelegramConfig) *NotificationGateway {
	transport, err := NewTransport(cfg)
	g := NewNotificationGateway(transport, cfg.ChatIDs)
	g.maxLen = maxMessageLength(cfg.Transport)
	if err == nil && len(cfg.ChatIDs) == 0 && isTelegram(cfg.Transport) {
		err = errTelegramNotConfigured
	}
	if err != nil {
		g.transport = nil
		g.configErr = err.Error()
		logger.Warn().Err(err).Msg("[Notification] Transport not configured")
	}
	return g
}

// Configured reports whether Send can reach anyone.
func (g *NotificationGateway) Configured() bool {
	return g.transport != nil && len(g.recipients) > 0
}

func (g *NotificationGateway) Send(ctx context.Context, text string) SendResult {
	result := SendResult{SentTo: []string{}}
	if g.transport == nil {
		result.Error = g.configErr
		if result.Error == "" {
			result.Error = "notification transport not configured"
		}
		return result
	}
	if len(g.recipients) == 0 {
		result.Error = "no notification recipients configured"
		return result
	}

	parts := labelParts(splitMessage(text, g.maxLen))

	var lastErr error
	for _, recipient := range g.recipients {
		delivered := true
		for i, part := range parts {
			if err := g.sendPart(ctx, recipient, part); err != nil {
				logger.Warn().Err(err).Str("recipient", recipient).Int("part", i+1).Msg("[Notification] Delivery failed")
				lastErr = err
				delivered = false
				break
			}
		}
		if delivered {
			result.SentTo = append(result.SentTo, recipient)
		}
	}

	result.OK = len(result.SentTo) > 0
	if lastErr != nil {
		result.Error = lastErr.Error()
	} else if !result.OK {
		result.Error = defaultSendFailure
	}
	return result
}

// sendPart applies the per-call timeout and converts a transport panic into an error.
func (g *NotificationGateway) sendPart(ctx context.Context, recipient, text string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return g.transport.Send(ctx, recipient, text)
}

func labelParts(parts []string) []string {
	if len(parts) <= 1 {
		return parts
	}
	labeled := make([]string, len(parts))
	for i, p := range parts {
		labeled[i] = fmt.Sprintf("(parte %d/%d)\n%s", i+1, len(parts), p)
	}
	return labeled
}

// splitMessage cuts text into parts of at most maxLen characters, breaking between lines.
// A single line longer than maxLen is cut inside the line so nothing is dropped.
func splitMessage(text string, maxLen int) []string {
	text = strings.Trim(text, "\n")
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	var buf []string
	bufLen := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if chunk := strings.TrimSpace(strings.Join(buf, "\n")); chunk != "" {
			parts = append(parts, chunk)
		}
		buf = nil
		bufLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		n := utf8.RuneCountInString(line)

		if n > maxLen {
			flush()
			pieces := hardSplit(line, maxLen)
			parts = append(parts, pieces[:len(pieces)-1]...)
			tail := pieces[len(pieces)-1]
			buf = []string{tail}
			bufLen = utf8.RuneCountInString(tail)
			continue
		}

		extra := n
		if len(buf) > 0 {
			extra++
		}
		if len(buf) > 0 && bufLen+extra > maxLen {
			flush()
			buf = []string{line}
			bufLen = n
			continue
		}
		buf = append(buf, line)
		bufLen += extra
	}
	flush()
	return parts
}

func hardSplit(line string, maxLen int) []string {
	runes := []rune(line)
	var pieces []string
	for len(runes) > maxLen {
		pieces = append(pieces, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	return append(pieces, string(runes))
}
