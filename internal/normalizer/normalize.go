package normalizer

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a configured source URL.
// A missing scheme defaults to http, scheme and host are lowercased and the fragment is dropped.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("input URL is empty")
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}

	// url.Parse("example.com/path") yields a bare Path, so re-parse with a scheme to get Host.
	if parsedURL.Scheme == "" {
		parsedURL, err = url.Parse("http://" + trimmed)
		if err != nil {
			return "", err
		}
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.New("unsupported URL scheme: " + parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", errors.New("URL has no host: " + trimmed)
	}
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""

	return parsedURL.String(), nil
}
