package monitor

import (
	"context"

	"github.com/aleister1102/pagewatch/internal/httpclient"

	"github.com/rs/zerolog"
)

// Page is a fetched body with the media type the server declared for it.
// ContentType carries the charset parameter used to decode Body.
type Page struct {
	Body        []byte
	ContentType string
}

// Fetcher retrieves the raw body of a source.
// Implementations must not touch any shared monitoring state.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// HTTPFetcher fetches pages through the shared HTTP client.
type HTTPFetcher struct {
	client      *httpclient.HTTPClient
	bypassCache bool
	logger      zerolog.Logger
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(client *httpclient.HTTPClient, bypassCache bool, logger zerolog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:      client,
		bypassCache: bypassCache,
		logger:      logger.With().Str("component", "Fetcher").Logger(),
	}
}

// Fetch GETs url. Failures are returned as *httpclient.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	result, err := f.client.FetchContent(httpclient.FetchContentInput{
		URL:         url,
		Context:     ctx,
		BypassCache: f.bypassCache,
	})
	if err != nil {
		f.logger.Debug().Err(err).Str("url", url).Msg("Fetch failed")
		return Page{}, err
	}

	f.logger.Debug().
		Str("url", url).
		Int("status_code", result.HTTPStatusCode).
		Str("content_type", result.ContentType).
		Int("size", len(result.Content)).
		Msg("Page fetched")
	return Page{Body: result.Content, ContentType: result.ContentType}, nil
}
