package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/aleister1102/pagewatch/internal/common"
)

// GetConfigPath determines the configuration file path.
// Priority:
// 1. --config command-line flag
// 2. PAGEWATCH_CONFIG_PATH environment variable
// 3. config.yaml, then config.json in the current working directory
// 4. config.yaml, then config.json in the executable's directory
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" && fileExists(configFilePathFlag) {
		return configFilePathFlag
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" && fileExists(envPath) {
		return envPath
	}

	var locations []string
	cwd, errCwd := os.Getwd()
	if errCwd == nil {
		locations = append(locations, cwd)
	}
	if exePath, err := os.Executable(); err == nil {
		if exeDir := filepath.Dir(exePath); exeDir != cwd {
			locations = append(locations, exeDir)
		}
	}

	for _, loc := range locations {
		for _, file := range []string{"config.yaml", "config.json"} {
			path := filepath.Join(loc, file)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// LoadEnvFiles loads PAGEWATCH_ENV_FILE when set, otherwise .env.local and .env.
// Variables already present in the environment are never overwritten and missing files are ignored.
func LoadEnvFiles() error {
	if envFile := os.Getenv(EnvEnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return common.WrapErrorf(err, "load env file %s", envFile)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return common.WrapErrorf(err, "load %s", name)
		}
	}
	return nil
}

// ApplyEnvOverrides lets secrets and the log level come from the environment.
func ApplyEnvOverrides(cfg *GlobalConfig) {
	if v := os.Getenv(EnvDiscordWebhookURL); v != "" {
		cfg.NotificationConfig.DiscordWebhookURL = v
	}
	if v := os.Getenv(EnvTelegramBotToken); v != "" {
		cfg.NotificationConfig.TelegramBotToken = v
	}
	if v := os.Getenv(EnvTelegramChatID); v != "" {
		cfg.NotificationConfig.TelegramChatID = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogConfig.LogLevel = v
	}
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
