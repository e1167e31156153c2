package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryHandler_DoWithRetry(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       3,
		BaseDelay:        time.Millisecond,
		MaxDelay:         10 * time.Millisecond,
		RetryStatusCodes: []int{http.StatusTooManyRequests},
	}, zerolog.Nop())

	calls := 0
	do := func(*HTTPRequest) (*HTTPResponse, error) {
		calls++
		if calls <= 2 {
			return &HTTPResponse{StatusCode: http.StatusTooManyRequests}, nil
		}
		return &HTTPResponse{StatusCode: http.StatusOK}, nil
	}

	resp, err := rh.DoWithRetry(context.Background(), do, &HTTPRequest{URL: "http://example.test"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestRetryHandler_TransportErrorsExhausted(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{MaxRetries: 2, BaseDelay: time.Millisecond}, zerolog.Nop())
	boom := errors.New("connection refused")

	calls := 0
	_, err := rh.DoWithRetry(context.Background(), func(*HTTPRequest) (*HTTPResponse, error) {
		calls++
		return nil, boom
	}, &HTTPRequest{URL: "http://example.test"})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryHandler_NonRetryableStatusReturnsImmediately(t *testing.T) {
	rh := NewRetryHandler(DefaultRetryHandlerConfig(), zerolog.Nop())

	calls := 0
	resp, err := rh.DoWithRetry(context.Background(), func(*HTTPRequest) (*HTTPResponse, error) {
		calls++
		return &HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}, &HTTPRequest{URL: "http://example.test"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestRetryHandler_ContextCancelledDuringWait(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       5,
		BaseDelay:        time.Hour,
		MaxDelay:         time.Hour,
		RetryStatusCodes: []int{http.StatusServiceUnavailable},
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rh.DoWithRetry(ctx, func(*HTTPRequest) (*HTTPResponse, error) {
		return &HTTPResponse{StatusCode: http.StatusServiceUnavailable}, nil
	}, &HTTPRequest{URL: "http://example.test"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}, zerolog.Nop())

	assert.Equal(t, 100*time.Millisecond, rh.CalculateDelay(0))
	assert.Equal(t, 200*time.Millisecond, rh.CalculateDelay(1))
	assert.Equal(t, 800*time.Millisecond, rh.CalculateDelay(3))
	assert.Equal(t, time.Second, rh.CalculateDelay(10))
}

func TestRetryHandler_JitterStaysBounded(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, EnableJitter: true}, zerolog.Nop())
	for i := 0; i < 50; i++ {
		d := rh.CalculateDelay(0)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 110*time.Millisecond)
	}
}
