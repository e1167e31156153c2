package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aleister1102/pagewatch/internal/common"
)

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("fileexists", func(fl validator.FieldLevel) bool {
		filePath := fl.Field().String()
		if filePath == "" {
			return true
		}
		return fileExists(filePath)
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("compression", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "zstd", "snappy", "gzip", "none":
			return true
		default:
			return false
		}
	})

	return validate
}

// ValidateConfig checks every section and fails when no source URL is configured.
// All problems found are returned together.
// Target URLs must already be resolved (see ResolveTargets).
func ValidateConfig(cfg *GlobalConfig) error {
	var problems common.ErrorCollector

	if err := newValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.Namespace(), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			problems.Add(common.WrapError(common.ErrInvalidConfiguration,
				fmt.Sprintf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))))
		} else {
			problems.Add(common.WrapError(err, "configuration validation error"))
		}
	}

	if len(cfg.MonitorConfig.TargetURLs) == 0 {
		problems.Add(common.NewConfigurationError("monitor_config", "target_urls", "at least one URL must be configured"))
	}
	return problems.Err()
}

// ResolveTargets merges target_urls with the targets file, normalizing and de-duplicating them.
// The merged list replaces MonitorConfig.TargetURLs.
func ResolveTargets(cfg *GlobalConfig) error {
	urls := append([]string{}, cfg.MonitorConfig.TargetURLs...)

	if cfg.MonitorConfig.TargetsFile != "" {
		fileURLs, err := ReadTargetsFile(cfg.MonitorConfig.TargetsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}

	normalized, err := normalizeTargets(urls)
	if err != nil {
		return err
	}
	cfg.MonitorConfig.TargetURLs = normalized
	return nil
}
