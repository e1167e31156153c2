package discord

import (
	"fmt"
	"unicode/utf8"

	"github.com/aleister1102/pagewatch/internal/common"
)

// Discord embed limits, counted in characters.
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MaxFields            = 25
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxFooterLength      = 2048
	MaxAuthorNameLength  = 256
)

// DiscordEmbedValidator validates Discord embed objects
type DiscordEmbedValidator struct{}

// NewDiscordEmbedValidator creates a new embed validator
func NewDiscordEmbedValidator() *DiscordEmbedValidator {
	return &DiscordEmbedValidator{}
}

// ValidateEmbed checks an embed against the Discord limits.
func (dev *DiscordEmbedValidator) ValidateEmbed(embed DiscordEmbed) error {
	if utf8.RuneCountInString(embed.Title) > MaxTitleLength {
		return common.NewValidationError("title", embed.Title, "title cannot exceed 256 characters")
	}

	if utf8.RuneCountInString(embed.Description) > MaxDescriptionLength {
		return common.NewValidationError("description", len(embed.Description), "description cannot exceed 4096 characters")
	}

	if len(embed.Fields) > MaxFields {
		return common.NewValidationError("fields", len(embed.Fields), "cannot have more than 25 fields")
	}

	for i, field := range embed.Fields {
		if field.Name == "" {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot be empty", i))
		}
		if field.Value == "" {
			return common.NewValidationError("field_value", field.Value, fmt.Sprintf("field %d value cannot be empty", i))
		}
		if utf8.RuneCountInString(field.Name) > MaxFieldNameLength {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot exceed 256 characters", i))
		}
		if utf8.RuneCountInString(field.Value) > MaxFieldValueLength {
			return common.NewValidationError("field_value", len(field.Value), fmt.Sprintf("field %d value cannot exceed 1024 characters", i))
		}
	}

	if embed.Footer != nil && utf8.RuneCountInString(embed.Footer.Text) > MaxFooterLength {
		return common.NewValidationError("footer_text", embed.Footer.Text, "footer text cannot exceed 2048 characters")
	}

	if embed.Author != nil && utf8.RuneCountInString(embed.Author.Name) > MaxAuthorNameLength {
		return common.NewValidationError("author_name", embed.Author.Name, "author name cannot exceed 256 characters")
	}

	return nil
}
