package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps .env files and config.yaml in the working directory out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvEnvFile, "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, 2*time.Second, cfg.MonitorConfig.CheckInterval())
	assert.Equal(t, 1, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, 15*time.Second, cfg.MonitorConfig.FetchTimeout())
	assert.Equal(t, 5, cfg.HealthConfig.MaxConsecutiveFailures)
	assert.Equal(t, 30, cfg.HealthConfig.InitialBackoffSeconds)
	assert.Equal(t, 600, cfg.HealthConfig.MaxBackoffSeconds)
	assert.Equal(t, 3500, cfg.DiffConfig.MaxDiffChars)
	assert.Equal(t, "zstd", cfg.StorageConfig.CompressionCodec)
	assert.Equal(t, "info", cfg.LogConfig.LogLevel)
}

func TestLoadGlobalConfig_NoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadGlobalConfig("", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, NewDefaultGlobalConfig(), cfg)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "pagewatch.yaml", `
monitor_config:
  target_urls:
    - https://tickets.example.com/show
  check_interval_seconds: 0.5
  max_concurrent_checks: 4
health_config:
  max_consecutive_failures: 3
  initial_backoff_seconds: 10
  max_backoff_seconds: 120
diff_config:
  context_lines: 1
  max_diff_chars: 1000
notification_config:
  discord_webhook_url: https://discord.example.com/api/webhooks/1/abc
log_config:
  log_level: debug
`)

	cfg, err := LoadGlobalConfig(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://tickets.example.com/show"}, cfg.MonitorConfig.TargetURLs)
	assert.Equal(t, 500*time.Millisecond, cfg.MonitorConfig.CheckInterval())
	assert.Equal(t, 4, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, 3, cfg.HealthConfig.MaxConsecutiveFailures)
	assert.Equal(t, 1, cfg.DiffConfig.ContextLines)
	assert.Equal(t, "https://discord.example.com/api/webhooks/1/abc", cfg.NotificationConfig.DiscordWebhookURL)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	// untouched sections keep defaults
	assert.Equal(t, DefaultMaxRetries, cfg.HTTPClientConfig.MaxRetries)
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.json", `{
		"monitor_config": {"target_urls": ["https://example.com"]},
		"storage_config": {"sqlite_path": "events.db", "compression_codec": "snappy"}
	}`)

	cfg, err := LoadGlobalConfig(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "events.db", cfg.StorageConfig.SQLitePath)
	assert.Equal(t, "snappy", cfg.StorageConfig.CompressionCodec)
}

func TestLoadGlobalConfig_InvalidContent(t *testing.T) {
	dir := isolate(t)

	_, err := LoadGlobalConfig(writeFile(t, dir, "bad.json", `{"monitor_config": {,}`), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")

	_, err = LoadGlobalConfig(writeFile(t, dir, "bad.yaml", "monitor_config:\n  target_urls: [\n"), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestGetConfigPath_Priority(t *testing.T) {
	dir := isolate(t)
	cwdConfig := writeFile(t, dir, "config.yaml", "{}")
	envConfig := writeFile(t, dir, "env.yaml", "{}")
	flagConfig := writeFile(t, dir, "flag.yaml", "{}")

	resolved := func(p string) string {
		r, err := filepath.EvalSymlinks(p)
		require.NoError(t, err)
		return r
	}

	assert.Equal(t, resolved(cwdConfig), resolved(GetConfigPath("")))

	t.Setenv(EnvConfigPath, envConfig)
	assert.Equal(t, envConfig, GetConfigPath(""))
	assert.Equal(t, flagConfig, GetConfigPath(flagConfig))
}

func TestLoadGlobalConfig_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", "PAGEWATCH_TELEGRAM_BOT_TOKEN=from-dotenv\nPAGEWATCH_TELEGRAM_CHAT_ID=42\n")
	t.Setenv(EnvDiscordWebhookURL, "https://discord.example.com/api/webhooks/2/xyz")
	// pre-set so the dotenv values do not leak into other tests
	t.Setenv(EnvTelegramBotToken, "")
	t.Setenv(EnvTelegramChatID, "")
	require.NoError(t, os.Unsetenv(EnvTelegramBotToken))
	require.NoError(t, os.Unsetenv(EnvTelegramChatID))

	cfg, err := LoadGlobalConfig("", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://discord.example.com/api/webhooks/2/xyz", cfg.NotificationConfig.DiscordWebhookURL)
	assert.Equal(t, "from-dotenv", cfg.NotificationConfig.TelegramBotToken)
	assert.Equal(t, "42", cfg.NotificationConfig.TelegramChatID)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *GlobalConfig {
		cfg := NewDefaultGlobalConfig()
		cfg.MonitorConfig.TargetURLs = []string{"https://example.com"}
		return cfg
	}

	require.NoError(t, ValidateConfig(valid()))

	t.Run("empty URL set", func(t *testing.T) {
		cfg := valid()
		cfg.MonitorConfig.TargetURLs = nil
		err := ValidateConfig(cfg)
		var cfgErr *common.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "target_urls", cfgErr.Field)
		assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
	})

	cases := map[string]func(*GlobalConfig){
		"bad log level":         func(c *GlobalConfig) { c.LogConfig.LogLevel = "loud" },
		"bad log format":        func(c *GlobalConfig) { c.LogConfig.LogFormat = "xml" },
		"bad compression":       func(c *GlobalConfig) { c.StorageConfig.CompressionCodec = "lz77" },
		"negative interval":     func(c *GlobalConfig) { c.MonitorConfig.CheckIntervalSeconds = -1 },
		"cap below initial":     func(c *GlobalConfig) { c.HealthConfig.MaxBackoffSeconds = 10 },
		"bad webhook URL":       func(c *GlobalConfig) { c.NotificationConfig.DiscordWebhookURL = "not a url" },
		"telegram without chat": func(c *GlobalConfig) { c.NotificationConfig.TelegramBotToken = "token" },
		"bad listen address":    func(c *GlobalConfig) { c.MetricsConfig.ListenAddress = "nope" },
		"missing targets file":  func(c *GlobalConfig) { c.MonitorConfig.TargetsFile = "/does/not/exist.txt" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
		})
	}
}

func TestResolveTargets(t *testing.T) {
	dir := t.TempDir()
	targets := writeFile(t, dir, "targets.txt", `
# musicals
https://Tickets.Example.com/show#seats
example.org/schedule

https://tickets.example.com/show
`)

	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.TargetURLs = []string{"https://a.example.com"}
	cfg.MonitorConfig.TargetsFile = targets

	require.NoError(t, ResolveTargets(cfg))
	assert.Equal(t, []string{
		"https://a.example.com",
		"https://tickets.example.com/show",
		"http://example.org/schedule",
	}, cfg.MonitorConfig.TargetURLs)
}

func TestResolveTargets_Errors(t *testing.T) {
	dir := t.TempDir()

	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.TargetsFile = writeFile(t, dir, "empty.txt", "# nothing\n\n")
	assert.ErrorIs(t, ResolveTargets(cfg), ErrTargetsFileEmpty)

	cfg.MonitorConfig.TargetsFile = filepath.Join(dir, "missing.txt")
	assert.ErrorIs(t, ResolveTargets(cfg), ErrTargetsFileNotFound)

	cfg.MonitorConfig.TargetsFile = ""
	cfg.MonitorConfig.TargetURLs = []string{"ftp://example.com"}
	assert.Error(t, ResolveTargets(cfg))
}

func TestResolveTargets_ReportsEveryInvalidURL(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.TargetURLs = []string{"ftp://a.example.com", "https://ok.example.com", "ftp://b.example.com"}

	err := ResolveTargets(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "ftp://a.example.com")
	assert.Contains(t, err.Error(), "ftp://b.example.com")
	assert.Equal(t, []string{"ftp://a.example.com", "https://ok.example.com", "ftp://b.example.com"},
		cfg.MonitorConfig.TargetURLs, "targets untouched on error")
}

func TestValidateConfig_ReportsAllProblems(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.LogConfig.LogLevel = "loud"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loglevel")
	var cfgErr *common.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "target_urls", cfgErr.Field)
}

func TestLoadAndValidate(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.yaml", "monitor_config:\n  max_passes: 1\n")
	targets := writeFile(t, dir, "targets.txt", "https://example.com\n")

	cfg, err := LoadAndValidate(path, targets, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, cfg.MonitorConfig.TargetURLs)
	assert.Equal(t, 1, cfg.MonitorConfig.MaxPasses)

	_, err = LoadAndValidate(path, "", zerolog.Nop())
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestConversions(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	client := cfg.HTTPClientConfig.ClientBuilder(zerolog.Nop()).Config()
	assert.Equal(t, 10*time.Second, client.Timeout)
	assert.Equal(t, 5*1024*1024, client.MaxContentSize)
	require.NotNil(t, client.Retry)
	assert.Equal(t, 3, client.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, client.Retry.BaseDelay)

	cfg.HTTPClientConfig.MaxRetries = 0
	assert.Nil(t, cfg.HTTPClientConfig.ClientBuilder(zerolog.Nop()).Config().Retry)

	cfg.HTTPClientConfig.CustomHeaders = map[string]string{"Accept-Language": "fr"}
	cfg.HTTPClientConfig.FollowRedirects = false
	client = cfg.HTTPClientConfig.ClientBuilder(zerolog.Nop()).Config()
	assert.Equal(t, "fr", client.CustomHeaders["Accept-Language"])
	assert.False(t, client.FollowRedirects)

	policy := cfg.HealthConfig.Policy()
	assert.Equal(t, 30*time.Second, policy.InitialBackoff)
	assert.Equal(t, 600*time.Second, policy.MaxBackoff)

	assert.Equal(t, 3, cfg.DiffConfig.DifferConfig().ContextLines)
}
