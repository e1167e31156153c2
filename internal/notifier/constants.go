package notifier

// Message formatting constants
const (
	DiscordUsername   = "pagewatch"
	FooterText        = "pagewatch monitor"
	SuccessEmbedColor = 0x5CB85C // green
	ErrorEmbedColor   = 0xD9534F // red
	WarningEmbedColor = 0xF0AD4E // orange
	MonitorEmbedColor = 0x6F42C1 // purple
)

// Length limits
const (
	MaxTelegramMessageLength = 4096
	MaxErrorTextLength       = 800
	MaxURLDisplayLength      = 200
)
