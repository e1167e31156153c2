package httpclient

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientBuilder(t *testing.T) {
	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithTimeout(15*time.Second).
		WithUserAgent("pagewatch-test").
		WithRedirects(false, 5).
		WithInsecureSkipVerify(true).
		WithHeaders(map[string]string{"Accept-Language": "en"}).
		WithRetry(DefaultRetryHandlerConfig()).
		Build()

	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, client.config.Timeout)
	assert.Equal(t, "pagewatch-test", client.config.UserAgent)
	assert.False(t, client.config.FollowRedirects)
	assert.True(t, client.config.InsecureSkipVerify)
	assert.Equal(t, 5, client.config.MaxRedirects)
	assert.Equal(t, "en", client.config.CustomHeaders["Accept-Language"])
	assert.NotNil(t, client.retryHandler)
}

func TestHTTPClientBuilder_DefaultValues(t *testing.T) {
	builder := NewHTTPClientBuilder(zerolog.Nop()).WithTimeout(0).WithUserAgent("")
	assert.Equal(t, DefaultHTTPClientConfig(), builder.Config())

	client, err := builder.Build()
	require.NoError(t, err)
	assert.Nil(t, client.retryHandler)
}

func TestHTTPClientBuilder_InvalidProxy(t *testing.T) {
	_, err := NewHTTPClientBuilder(zerolog.Nop()).WithProxy("://bad").Build()
	assert.Error(t, err)
}
