package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps a single pooled net/http.Client shared by every caller.
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	logger       zerolog.Logger
	retryHandler *RetryHandler
	bufferPool   sync.Pool
}

// NewHTTPClient creates a new HTTP client with the given configuration using net/http
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", config.Proxy).Msg("HTTP client configured with proxy")
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if config.MaxRedirects > 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return nil
		}
	}

	c := &HTTPClient{
		client: client,
		config: config,
		logger: logger,
		bufferPool: sync.Pool{
			New: func() interface{} {
				b := make([]byte, 32*1024)
				return &b
			},
		},
	}
	if config.Retry != nil {
		c.retryHandler = NewRetryHandler(*config.Retry, logger)
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("follow_redirects", config.FollowRedirects).
		Bool("http2_enabled", config.EnableHTTP2).
		Bool("retries_enabled", c.retryHandler != nil).
		Msg("HTTP client created")

	return c, nil
}

// Do performs an HTTP request. Idempotent requests are retried when a retry handler is configured.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	if c.retryHandler != nil && isIdempotent(req.Method) {
		ctx := req.Context
		if ctx == nil {
			ctx = context.Background()
		}
		return c.retryHandler.DoWithRetry(ctx, c.do, req)
	}
	return c.do(req)
}

func (c *HTTPClient) do(req *HTTPRequest) (*HTTPResponse, error) {
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, req.Body)
	if err != nil {
		return nil, WrapError(err, "failed to create HTTP request")
	}

	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "*/*")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)
	buf := bytes.NewBuffer((*bufPtr)[:0])

	var body io.Reader = resp.Body
	if c.config.MaxContentSize > 0 {
		// one extra byte tells a body that fits from one that must be cut
		body = io.LimitReader(resp.Body, int64(c.config.MaxContentSize)+1)
	}
	if _, err = io.Copy(buf, body); err != nil {
		return nil, WrapError(err, "failed to read response body")
	}

	bodyBytes := make([]byte, buf.Len())
	copy(bodyBytes, buf.Bytes())

	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string),
		Body:       bodyBytes,
	}
	for key, values := range resp.Header {
		if len(values) > 0 {
			httpResp.Headers[key] = values[0]
		}
	}

	return httpResp, nil
}

// FetchContentInput holds parameters for FetchContent.
type FetchContentInput struct {
	URL         string
	Context     context.Context
	BypassCache bool // When true, sends no-cache headers to force fresh content
}

// FetchContentResult holds results from FetchContent.
type FetchContentResult struct {
	Content        []byte
	ContentType    string
	HTTPStatusCode int
}

// FetchContent GETs a page and returns its body.
// Every failure is reported as a *FetchError.
func (c *HTTPClient) FetchContent(input FetchContentInput) (*FetchContentResult, error) {
	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}

	headers := make(map[string]string)
	if input.BypassCache {
		headers["Cache-Control"] = "no-cache, no-store, must-revalidate"
		headers["Pragma"] = "no-cache"
		headers["Expires"] = "0"
	}

	resp, err := c.Do(&HTTPRequest{
		URL:     input.URL,
		Method:  http.MethodGet,
		Headers: headers,
		Context: ctx,
	})
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return nil, NewFetchError(input.URL, ReasonUnexpectedStatus, httpErr.StatusCode, err)
		}
		return nil, NewFetchError(input.URL, ReasonRequestFailed, 0, err)
	}

	result := &FetchContentResult{
		ContentType:    resp.Headers["Content-Type"],
		HTTPStatusCode: resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().Str("url", input.URL).Int("status_code", resp.StatusCode).Msg("Received non-2xx HTTP status")
		return nil, NewFetchError(input.URL, ReasonUnexpectedStatus, resp.StatusCode,
			NewHTTPErrorWithURL(resp.StatusCode, truncateBody(resp.Body), input.URL))
	}

	body := resp.Body
	if c.config.MaxContentSize > 0 && len(body) > c.config.MaxContentSize {
		c.logger.Warn().
			Str("url", input.URL).
			Int("max_content_size", c.config.MaxContentSize).
			Msg("Content size exceeds limit, truncating")
		body = body[:c.config.MaxContentSize]
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, NewFetchError(input.URL, ReasonEmptyBody, resp.StatusCode, nil)
	}
	result.Content = body

	c.logger.Debug().
		Str("url", input.URL).
		Int("content_size", len(result.Content)).
		Str("content_type", result.ContentType).
		Msg("Successfully fetched content")

	return result, nil
}

// PostJSON sends a JSON body once, without retries. Used by webhook notifiers.
func (c *HTTPClient) PostJSON(ctx context.Context, targetURL string, payload []byte) (*HTTPResponse, error) {
	resp, err := c.do(&HTTPRequest{
		URL:     targetURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
		Body:    bytes.NewReader(payload),
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, NewHTTPErrorWithURL(resp.StatusCode, truncateBody(resp.Body), targetURL)
	}
	return resp, nil
}
