package config

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/health"
	"github.com/aleister1102/pagewatch/internal/httpclient"

	"github.com/rs/zerolog"
)

// ClientBuilder maps the section onto a builder for the shared HTTP client.
func (c HTTPClientConfig) ClientBuilder(logger zerolog.Logger) *httpclient.HTTPClientBuilder {
	builder := httpclient.NewHTTPClientBuilder(logger).
		WithTimeout(time.Duration(c.TimeoutSeconds)*time.Second).
		WithUserAgent(c.UserAgent).
		WithProxy(c.Proxy).
		WithInsecureSkipVerify(c.InsecureSkipVerify).
		WithRedirects(c.FollowRedirects, c.MaxRedirects).
		WithMaxContentSize(c.MaxContentSizeMB * 1024 * 1024).
		WithHeaders(c.CustomHeaders)

	if c.MaxRetries > 0 {
		retry := httpclient.DefaultRetryHandlerConfig()
		retry.MaxRetries = c.MaxRetries
		retry.BaseDelay = time.Duration(c.RetryBaseDelayMillis) * time.Millisecond
		retry.MaxDelay = time.Duration(c.RetryMaxDelayMillis) * time.Millisecond
		if len(c.RetryStatusCodes) > 0 {
			retry.RetryStatusCodes = append([]int(nil), c.RetryStatusCodes...)
		}
		builder.WithRetry(retry)
	}
	return builder
}

// Policy maps the section onto the health tracker policy.
func (c HealthConfig) Policy() health.Policy {
	return health.Policy{
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
		InitialBackoff:         time.Duration(c.InitialBackoffSeconds) * time.Second,
		MaxBackoff:             time.Duration(c.MaxBackoffSeconds) * time.Second,
	}
}

// DifferConfig maps the section onto the diff renderer settings.
func (c DiffConfig) DifferConfig() differ.DiffConfig {
	return differ.DiffConfig{
		ContextLines: c.ContextLines,
		MaxDiffChars: c.MaxDiffChars,
	}
}
