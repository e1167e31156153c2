package notifier

import (
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/httpclient"

	"github.com/rs/zerolog"
)

// SinksFromConfig creates the chat and log sinks enabled by cfg.
// Storage sinks are added by the caller.
func SinksFromConfig(cfg config.NotificationConfig, client *httpclient.HTTPClient, logger zerolog.Logger) []Sink {
	var sinks []Sink
	if cfg.LogEvents {
		sinks = append(sinks, NewLogNotifier(logger))
	}
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, NewDiscordNotifier(
			cfg.DiscordWebhookURL, cfg.MentionRoleIDs, cfg.NotifyOnHealthChange,
			cfg.WebhookRequestsPerMin, client, logger))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		sinks = append(sinks, NewTelegramNotifier(
			cfg.TelegramAPIBaseURL, cfg.TelegramBotToken, cfg.TelegramChatID,
			cfg.NotifyOnHealthChange, cfg.WebhookRequestsPerMin, client, logger))
	}
	return sinks
}
