package config

// HTTPClientConfig defines how pages are fetched
type HTTPClientConfig struct {
	TimeoutSeconds       int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	UserAgent            string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Proxy                string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	InsecureSkipVerify   bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	FollowRedirects      bool              `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects         int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"gte=0"`
	MaxContentSizeMB     int               `json:"max_content_size_mb,omitempty" yaml:"max_content_size_mb,omitempty" validate:"gte=0"`
	CustomHeaders        map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
	MaxRetries           int               `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelayMillis int               `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"gte=0"`
	RetryMaxDelayMillis  int               `json:"retry_max_delay_ms,omitempty" yaml:"retry_max_delay_ms,omitempty" validate:"gte=0"`
	RetryStatusCodes     []int             `json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty" validate:"dive,min=100,max=599"`
}

// NewDefaultHTTPClientConfig creates default HTTP client configuration
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		TimeoutSeconds:       DefaultHTTPTimeoutSeconds,
		FollowRedirects:      true,
		MaxRedirects:         DefaultMaxRedirects,
		MaxContentSizeMB:     DefaultMaxContentSizeMB,
		CustomHeaders:        map[string]string{},
		MaxRetries:           DefaultMaxRetries,
		RetryBaseDelayMillis: DefaultRetryBaseDelayMillis,
		RetryMaxDelayMillis:  DefaultRetryMaxDelayMillis,
		RetryStatusCodes:     []int{500, 502, 503, 504},
	}
}
