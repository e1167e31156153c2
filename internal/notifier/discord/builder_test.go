package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordEmbedBuilder_Build(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	embed, err := NewDiscordEmbedBuilder().
		WithTitle("Test").
		WithDescription("Description").
		WithURL("https://example.com").
		WithTimestamp(at).
		WithColor(0x00FF00).
		AddField("Lines", "+1 / -1", true).
		WithFooter("pagewatch", "").
		Build()

	require.NoError(t, err)
	assert.Equal(t, "Test", embed.Title)
	assert.Equal(t, "Description", embed.Description)
	assert.Equal(t, "2026-03-01T09:30:00Z", embed.Timestamp)
	assert.Equal(t, 0x00FF00, embed.Color)
	require.Len(t, embed.Fields, 1)
	assert.True(t, embed.Fields[0].Inline)
	assert.Equal(t, "pagewatch", embed.Footer.Text)
}

func TestDiscordEmbedBuilder_RejectsOversizedEmbeds(t *testing.T) {
	tests := map[string]*DiscordEmbedBuilder{
		"long title":       NewDiscordEmbedBuilder().WithTitle(strings.Repeat("t", 257)),
		"long description": NewDiscordEmbedBuilder().WithDescription(strings.Repeat("d", 4097)),
		"empty field":      NewDiscordEmbedBuilder().AddField("name", "", false),
		"long field value": NewDiscordEmbedBuilder().AddField("name", strings.Repeat("v", 1025), false),
	}
	for name, builder := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := builder.Build()
			assert.Error(t, err)
		})
	}

	// limits count characters, not bytes
	_, err := NewDiscordEmbedBuilder().WithTitle(strings.Repeat("é", 256)).Build()
	assert.NoError(t, err)
}

func TestDiscordMessagePayloadBuilder_RoleMentions(t *testing.T) {
	payload := NewDiscordMessagePayloadBuilder().
		WithContent("page changed").
		WithRoleMentions([]string{"123", "456"}).
		WithUsername("pagewatch").
		Build()

	assert.Equal(t, "<@&123> <@&456>\npage changed", payload.Content)
	require.NotNil(t, payload.AllowedMentions)
	assert.Equal(t, []string{"123", "456"}, payload.AllowedMentions.Roles)
	assert.Empty(t, payload.AllowedMentions.Parse)

	plain := NewDiscordMessagePayloadBuilder().WithRoleMentions(nil).Build()
	assert.Nil(t, plain.AllowedMentions)
}
