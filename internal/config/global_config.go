package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/logger"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	MonitorConfig      MonitorConfig        `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	HealthConfig       HealthConfig         `json:"health_config,omitempty" yaml:"health_config,omitempty"`
	HTTPClientConfig   HTTPClientConfig     `json:"http_client_config,omitempty" yaml:"http_client_config,omitempty"`
	DiffConfig         DiffConfig           `json:"diff_config,omitempty" yaml:"diff_config,omitempty"`
	NotificationConfig NotificationConfig   `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	StorageConfig      StorageConfig        `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	MetricsConfig      MetricsConfig        `json:"metrics_config,omitempty" yaml:"metrics_config,omitempty"`
	LogConfig          logger.FileLogConfig `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		MonitorConfig:      NewDefaultMonitorConfig(),
		HealthConfig:       NewDefaultHealthConfig(),
		HTTPClientConfig:   NewDefaultHTTPClientConfig(),
		DiffConfig:         NewDefaultDiffConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		MetricsConfig:      NewDefaultMetricsConfig(),
		LogConfig:          logger.NewDefaultFileLogConfig(),
	}
}

// LoadGlobalConfig loads .env files, then the configuration file found by GetConfigPath,
// then applies environment overrides. Missing config files yield the defaults.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !fileExists(providedPath) {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath != "" {
		data, err := readConfigFile(filePath)
		if err != nil {
			return nil, common.WrapError(err, "failed to load config file content")
		}
		if err := parseConfigContent(data, filePath, cfg); err != nil {
			return nil, common.WrapError(err, "failed to parse config content")
		}
		logger.Debug().Str("path", filePath).Msg("Loaded configuration file")
	}

	ApplyEnvOverrides(cfg)
	return cfg, nil
}

// LoadAndValidate loads the configuration, merges an optional targets file given on the
// command line, resolves the URL set and validates the result.
func LoadAndValidate(providedPath, targetsFile string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg, err := LoadGlobalConfig(providedPath, logger)
	if err != nil {
		return nil, err
	}
	if targetsFile != "" {
		cfg.MonitorConfig.TargetsFile = targetsFile
	}
	if err := ResolveTargets(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", info.Size(), "config file exceeds 10MB")
	}
	return os.ReadFile(filePath)
}

func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
