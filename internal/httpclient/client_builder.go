package httpclient

import (
	"time"

	"github.com/rs/zerolog"
)

// HTTPClientBuilder assembles the shared page and webhook client.
// It starts from DefaultHTTPClientConfig, which has retries disabled.
type HTTPClientBuilder struct {
	config HTTPClientConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder creates a builder seeded with the default settings.
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger,
	}
}

// WithTimeout bounds a single request attempt. Non-positive values keep the default.
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	if timeout > 0 {
		b.config.Timeout = timeout
	}
	return b
}

// WithUserAgent overrides the User-Agent header. An empty value keeps the default.
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	if userAgent != "" {
		b.config.UserAgent = userAgent
	}
	return b
}

func (b *HTTPClientBuilder) WithInsecureSkipVerify(skip bool) *HTTPClientBuilder {
	b.config.InsecureSkipVerify = skip
	return b
}

// WithRedirects controls redirect handling; max <= 0 leaves the count unbounded.
func (b *HTTPClientBuilder) WithRedirects(follow bool, max int) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	b.config.MaxRedirects = max
	return b
}

// WithMaxContentSize caps the body read per page in bytes (0 for no limit).
func (b *HTTPClientBuilder) WithMaxContentSize(size int) *HTTPClientBuilder {
	b.config.MaxContentSize = size
	return b
}

func (b *HTTPClientBuilder) WithProxy(proxy string) *HTTPClientBuilder {
	b.config.Proxy = proxy
	return b
}

// WithHeaders adds headers sent with every request.
func (b *HTTPClientBuilder) WithHeaders(headers map[string]string) *HTTPClientBuilder {
	if b.config.CustomHeaders == nil {
		b.config.CustomHeaders = make(map[string]string, len(headers))
	}
	for key, value := range headers {
		b.config.CustomHeaders[key] = value
	}
	return b
}

// WithRetry retries idempotent requests with exponential backoff.
func (b *HTTPClientBuilder) WithRetry(cfg RetryHandlerConfig) *HTTPClientBuilder {
	b.config.Retry = &cfg
	return b
}

// Config returns the settings Build will use.
func (b *HTTPClientBuilder) Config() HTTPClientConfig {
	return b.config
}

func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	return NewHTTPClient(b.config, b.logger)
}
