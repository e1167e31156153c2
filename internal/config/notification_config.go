package config

// NotificationConfig defines the notification sinks
type NotificationConfig struct {
	DiscordWebhookURL     string   `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	MentionRoleIDs        []string `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty"`
	TelegramBotToken      string   `json:"telegram_bot_token,omitempty" yaml:"telegram_bot_token,omitempty"`
	TelegramChatID        string   `json:"telegram_chat_id,omitempty" yaml:"telegram_chat_id,omitempty" validate:"required_with=TelegramBotToken"`
	TelegramAPIBaseURL    string   `json:"telegram_api_base_url,omitempty" yaml:"telegram_api_base_url,omitempty" validate:"omitempty,url"`
	LogEvents             bool     `json:"log_events" yaml:"log_events"`
	NotifyOnHealthChange  bool     `json:"notify_on_health_change" yaml:"notify_on_health_change"`
	NotifyTimeoutSeconds  int      `json:"notify_timeout_seconds,omitempty" yaml:"notify_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	QueueSize             int      `json:"queue_size,omitempty" yaml:"queue_size,omitempty" validate:"omitempty,min=1"`
	WebhookRequestsPerMin int      `json:"webhook_requests_per_minute,omitempty" yaml:"webhook_requests_per_minute,omitempty" validate:"gte=0"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		MentionRoleIDs:        []string{},
		TelegramAPIBaseURL:    DefaultTelegramAPIBaseURL,
		LogEvents:             true,
		NotifyOnHealthChange:  true,
		NotifyTimeoutSeconds:  DefaultNotifyTimeoutSeconds,
		QueueSize:             DefaultNotificationQueueSize,
		WebhookRequestsPerMin: DefaultWebhookRequestsPerMin,
	}
}

// StorageConfig defines where events and snapshots are persisted
type StorageConfig struct {
	SQLitePath       string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	SeedSnapshots    bool   `json:"seed_snapshots" yaml:"seed_snapshots"`
	ParquetBasePath  string `json:"parquet_base_path,omitempty" yaml:"parquet_base_path,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,compression"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SQLitePath:       DefaultSQLitePath,
		SeedSnapshots:    true,
		ParquetBasePath:  "",
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}

// MetricsConfig defines the status and metrics HTTP server
type MetricsConfig struct {
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty" validate:"omitempty,hostname_port"`
}

// NewDefaultMetricsConfig creates default metrics configuration
func NewDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{}
}
