package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aleister1102/pagewatch/internal/httpclient"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/notifier/discord"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// diffBudget leaves room for the code fence and the summary line inside an embed description.
const diffBudget = discord.MaxDescriptionLength - 200

// DiscordNotifier posts change and health embeds to a Discord webhook.
type DiscordNotifier struct {
	logger         zerolog.Logger
	httpClient     *httpclient.HTTPClient
	webhookURL     string
	mentionRoleIDs []string
	notifyHealth   bool
	limiter        *rate.Limiter
}

// NewDiscordNotifier creates a new DiscordNotifier. requestsPerMinute 0 disables rate limiting.
func NewDiscordNotifier(
	webhookURL string,
	mentionRoleIDs []string,
	notifyHealth bool,
	requestsPerMinute int,
	httpClient *httpclient.HTTPClient,
	logger zerolog.Logger,
) *DiscordNotifier {
	return &DiscordNotifier{
		logger:         logger.With().Str("component", "DiscordNotifier").Logger(),
		httpClient:     httpClient,
		webhookURL:     webhookURL,
		mentionRoleIDs: mentionRoleIDs,
		notifyHealth:   notifyHealth,
		limiter:        newLimiter(requestsPerMinute),
	}
}

// Name implements Sink.
func (dn *DiscordNotifier) Name() string { return "discord" }

// NotifyChange implements Sink.
func (dn *DiscordNotifier) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	payload, err := FormatChangeMessage(event, dn.mentionRoleIDs)
	if err != nil {
		return err
	}
	return dn.send(ctx, payload)
}

// NotifyHealth implements Sink. Health events are skipped unless enabled.
func (dn *DiscordNotifier) NotifyHealth(ctx context.Context, event models.HealthEvent) error {
	if !dn.notifyHealth {
		return nil
	}
	payload, err := FormatHealthMessage(event)
	if err != nil {
		return err
	}
	return dn.send(ctx, payload)
}

func (dn *DiscordNotifier) send(ctx context.Context, payload discord.DiscordMessagePayload) error {
	if err := dn.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := dn.httpClient.PostJSON(ctx, dn.webhookURL, body)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}

// FormatChangeMessage renders a change event as a Discord embed with the diff in a code block.
func FormatChangeMessage(event models.ChangeEvent, mentionRoleIDs []string) (discord.DiscordMessagePayload, error) {
	diff, cut := truncateLines(codeFence(event.Diff), diffBudget)
	truncated := cut || event.DiffTruncated

	description := fmt.Sprintf("```diff\n%s```", diff)
	if truncated {
		description += "\n_diff truncated_"
	}

	embed, err := discord.NewDiscordEmbedBuilder().
		WithTitle("🔔 Page changed").
		WithURL(event.URL).
		WithDescription(description).
		WithColor(WarningEmbedColor).
		WithTimestamp(event.DetectedAt).
		AddField("URL", truncateString(event.URL, MaxURLDisplayLength), false).
		AddField("Lines", fmt.Sprintf("+%d / -%d", event.LinesAdded, event.LinesRemoved), true).
		AddField("Hash", fmt.Sprintf("`%s` → `%s`", shortHash(event.PreviousHash), shortHash(event.CurrentHash)), true).
		WithFooter(fmt.Sprintf("%s • %s", FooterText, event.ID), "").
		Build()
	if err != nil {
		return discord.DiscordMessagePayload{}, fmt.Errorf("build change embed: %w", err)
	}

	return discord.NewDiscordMessagePayloadBuilder().
		WithUsername(DiscordUsername).
		WithRoleMentions(mentionRoleIDs).
		AddEmbed(embed).
		Build(), nil
}

// FormatHealthMessage renders a health transition.
func FormatHealthMessage(event models.HealthEvent) (discord.DiscordMessagePayload, error) {
	title, color := healthTitle(event)

	builder := discord.NewDiscordEmbedBuilder().
		WithTitle(title).
		WithURL(event.URL).
		WithColor(color).
		WithTimestamp(event.OccurredAt).
		AddField("URL", truncateString(event.URL, MaxURLDisplayLength), false).
		AddField("State", fmt.Sprintf("%s → %s", event.From, event.To), true).
		AddField("Consecutive failures", fmt.Sprintf("%d", event.ConsecutiveFailures), true).
		WithFooter(FooterText, "")

	if event.Disabled() {
		builder.AddField("Next probe", fmt.Sprintf("in %s", formatDuration(event.BackoffDelay)), true)
	}
	if event.Error != "" {
		builder.AddField("Last error", fmt.Sprintf("```%s```", codeFence(compressErrorMessage(event.Error))), false)
	}

	embed, err := builder.Build()
	if err != nil {
		return discord.DiscordMessagePayload{}, fmt.Errorf("build health embed: %w", err)
	}
	return discord.NewDiscordMessagePayloadBuilder().
		WithUsername(DiscordUsername).
		AddEmbed(embed).
		Build(), nil
}

func healthTitle(event models.HealthEvent) (string, int) {
	switch {
	case event.Recovered():
		return "✅ Source recovered", SuccessEmbedColor
	case event.Disabled() && event.From == models.HealthDisabled:
		return "⛔ Source still unreachable", ErrorEmbedColor
	case event.Disabled():
		return "⛔ Source disabled", ErrorEmbedColor
	case event.To == models.HealthDegraded:
		return "⚠️ Source degraded", WarningEmbedColor
	default:
		return "ℹ️ Source healthy", MonitorEmbedColor
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
