// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// defaultUserAgent is sent with every HTTP request.
const defaultUserAgent = "cefkit"

type (
	// Fetcher retrieves the full contents at a locator in one attempt.
	// Implementations buffer the whole body; archives are fetched once and
	// then served from the cache.
	Fetcher interface {
		Fetch(ctx context.Context, locator string) ([]byte, error)
	}

	// HTTPFetcher fetches http:// and https:// locators with a single GET.
	HTTPFetcher struct {
		client    *http.Client
		userAgent string
	}

	// HTTPOption configures an HTTPFetcher.
	HTTPOption func(*HTTPFetcher)
)

// WithClient sets the HTTP client. No timeout is imposed beyond the client's.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates an HTTPFetcher using http.DefaultClient.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{client: http.DefaultClient, userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues one GET and returns the whole body. Any non-2xx status is a
// TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, http.NoBody)
	if err != nil {
		return nil, &TransportError{Locator: locator, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Locator: locator, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Locator: locator, Err: fmt.Errorf("reading body: %w", err)}
	}
	return data, nil
}

// isS3 reports whether a base URL addresses an S3 bucket.
func isS3(baseURL string) bool {
	u, err := url.Parse(baseURL)
	return err == nil && strings.EqualFold(u.Scheme, "s3")
}
