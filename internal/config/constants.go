package config

// Monitor defaults
const (
	DefaultCheckIntervalSeconds = 2
	DefaultMaxConcurrentChecks  = 1
	DefaultFetchTimeoutSeconds  = 15
)

// Health defaults
const (
	DefaultMaxConsecutiveFailures = 5
	DefaultInitialBackoffSeconds  = 30
	DefaultMaxBackoffSeconds      = 600
)

// HTTP client defaults
const (
	DefaultHTTPTimeoutSeconds   = 10
	DefaultMaxRedirects         = 10
	DefaultMaxContentSizeMB     = 5
	DefaultMaxRetries           = 3
	DefaultRetryBaseDelayMillis = 500
	DefaultRetryMaxDelayMillis  = 4000
)

// Diff defaults
const (
	DefaultContextLines = 3
	DefaultMaxDiffChars = 3500
)

// Notification defaults
const (
	DefaultNotifyTimeoutSeconds  = 10
	DefaultNotificationQueueSize = 256
	DefaultTelegramAPIBaseURL    = "https://api.telegram.org"
	DefaultWebhookRequestsPerMin = 30
)

// Storage defaults
const (
	DefaultSQLitePath              = "data/pagewatch.db"
	DefaultStorageCompressionCodec = "zstd"
)

// Environment variables
const (
	EnvConfigPath        = "PAGEWATCH_CONFIG_PATH"
	EnvEnvFile           = "PAGEWATCH_ENV_FILE"
	EnvDiscordWebhookURL = "PAGEWATCH_DISCORD_WEBHOOK_URL"
	EnvTelegramBotToken  = "PAGEWATCH_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID    = "PAGEWATCH_TELEGRAM_CHAT_ID"
	EnvLogLevel          = "PAGEWATCH_LOG_LEVEL"
)
