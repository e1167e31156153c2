package discord

import (
	"time"
)

// DiscordEmbedBuilder helps in constructing DiscordEmbed objects.
type DiscordEmbedBuilder struct {
	embed     DiscordEmbed
	validator *DiscordEmbedValidator
}

// NewDiscordEmbedBuilder creates a new Discord embed builder
func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{
		validator: NewDiscordEmbedValidator(),
	}
}

// WithTitle sets the embed title
func (deb *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	deb.embed.Title = title
	return deb
}

// WithDescription sets the embed description
func (deb *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	deb.embed.Description = description
	return deb
}

// WithURL makes the title a link
func (deb *DiscordEmbedBuilder) WithURL(url string) *DiscordEmbedBuilder {
	deb.embed.URL = url
	return deb
}

// WithTimestamp sets the embed timestamp
func (deb *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	deb.embed.Timestamp = timestamp.UTC().Format(time.RFC3339)
	return deb
}

// WithColor sets the embed color
func (deb *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	deb.embed.Color = color
	return deb
}

// WithFooter sets the embed footer
func (deb *DiscordEmbedBuilder) WithFooter(text, iconURL string) *DiscordEmbedBuilder {
	deb.embed.Footer = &DiscordEmbedFooter{Text: text, IconURL: iconURL}
	return deb
}

// WithAuthor sets the embed author
func (deb *DiscordEmbedBuilder) WithAuthor(name, url, iconURL string) *DiscordEmbedBuilder {
	deb.embed.Author = &DiscordEmbedAuthor{Name: name, URL: url, IconURL: iconURL}
	return deb
}

// AddField adds a field to the embed
func (deb *DiscordEmbedBuilder) AddField(name, value string, inline bool) *DiscordEmbedBuilder {
	deb.embed.Fields = append(deb.embed.Fields, DiscordEmbedField{Name: name, Value: value, Inline: inline})
	return deb
}

// Build validates and returns the embed.
func (deb *DiscordEmbedBuilder) Build() (DiscordEmbed, error) {
	if err := deb.validator.ValidateEmbed(deb.embed); err != nil {
		return DiscordEmbed{}, err
	}
	return deb.embed, nil
}
