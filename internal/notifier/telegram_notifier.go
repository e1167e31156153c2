package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/aleister1102/pagewatch/internal/httpclient"
	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TelegramNotifier sends messages through the Telegram Bot API sendMessage method.
type TelegramNotifier struct {
	logger       zerolog.Logger
	httpClient   *httpclient.HTTPClient
	endpoint     string
	chatID       string
	notifyHealth bool
	limiter      *rate.Limiter
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier creates a new TelegramNotifier.
func NewTelegramNotifier(
	apiBaseURL, botToken, chatID string,
	notifyHealth bool,
	requestsPerMinute int,
	httpClient *httpclient.HTTPClient,
	logger zerolog.Logger,
) *TelegramNotifier {
	return &TelegramNotifier{
		logger:       logger.With().Str("component", "TelegramNotifier").Logger(),
		httpClient:   httpClient,
		endpoint:     fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(apiBaseURL, "/"), botToken),
		chatID:       chatID,
		notifyHealth: notifyHealth,
		limiter:      newLimiter(requestsPerMinute),
	}
}

// Name implements Sink.
func (tn *TelegramNotifier) Name() string { return "telegram" }

// NotifyChange implements Sink.
func (tn *TelegramNotifier) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	return tn.send(ctx, FormatTelegramChange(event))
}

// NotifyHealth implements Sink. Health events are skipped unless enabled.
func (tn *TelegramNotifier) NotifyHealth(ctx context.Context, event models.HealthEvent) error {
	if !tn.notifyHealth {
		return nil
	}
	return tn.send(ctx, FormatTelegramHealth(event))
}

func (tn *TelegramNotifier) send(ctx context.Context, text string) error {
	if err := tn.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit wait: %w", err)
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:                tn.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	resp, err := tn.httpClient.PostJSON(ctx, tn.endpoint, body)
	if err != nil {
		// the endpoint embeds the bot token
		return fmt.Errorf("telegram sendMessage failed: %s", redactToken(err.Error(), tn.endpoint))
	}

	var result telegramResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", result.Description)
	}

	tn.logger.Debug().Str("chat_id", tn.chatID).Msg("Telegram notification sent")
	return nil
}

// FormatTelegramChange renders a change event as an HTML message within the Telegram size limit.
func FormatTelegramChange(event models.ChangeEvent) string {
	header := fmt.Sprintf("<b>🔔 Page changed</b>\n<a href=\"%s\">%s</a>\n+%d / -%d lines\n",
		html.EscapeString(event.URL),
		html.EscapeString(truncateString(event.URL, MaxURLDisplayLength)),
		event.LinesAdded, event.LinesRemoved)

	const preOpen, preClose, note = "<pre>", "</pre>", "\n<i>diff truncated</i>"
	budget := MaxTelegramMessageLength - len([]rune(header)) - len(preOpen) - len(preClose) - len(note)

	diff := html.EscapeString(event.Diff)
	diff, cut := truncateLines(diff, budget)
	// never leave a partial entity such as "&am" at the cut
	if cut {
		if amp := strings.LastIndexByte(diff, '&'); amp >= 0 && !strings.Contains(diff[amp:], ";") {
			diff = diff[:amp]
		}
	}

	msg := header + preOpen + diff + preClose
	if cut || event.DiffTruncated {
		msg += note
	}
	return msg
}

// FormatTelegramHealth renders a health transition as an HTML message.
func FormatTelegramHealth(event models.HealthEvent) string {
	title, _ := healthTitle(event)
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n%s\nState: %s → %s\nConsecutive failures: %d",
		html.EscapeString(title),
		html.EscapeString(truncateString(event.URL, MaxURLDisplayLength)),
		event.From, event.To, event.ConsecutiveFailures)
	if event.Disabled() {
		fmt.Fprintf(&sb, "\nNext probe in %s", formatDuration(event.BackoffDelay))
	}
	if event.Error != "" {
		fmt.Fprintf(&sb, "\n<code>%s</code>", html.EscapeString(compressErrorMessage(event.Error)))
	}
	return sb.String()
}

func redactToken(msg, endpoint string) string {
	i := strings.Index(endpoint, "/bot")
	if i < 0 {
		return msg
	}
	token := strings.TrimSuffix(endpoint[i+len("/bot"):], "/sendMessage")
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, token, "<redacted>")
}
