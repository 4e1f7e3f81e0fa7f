package imdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public IMDb site.
	DefaultBaseURL = "https://www.imdb.com"

	// DefaultUserAgent mimics a desktop Chrome; the CDN rejects default client agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"

	maxPageBytes = 8 << 20 // 8 MiB
)

// Client fetches the ratings page of a title.
type Client interface {
	FetchRatingsPage(ctx context.Context, id string) ([]byte, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL   *url.URL
	userAgent string
	client    *http.Client
	logger    zerolog.Logger
}

// NewHTTPClient constructs a ratings page client rooted at baseURL.
func NewHTTPClient(baseURL, userAgent string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse imdb base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("imdb base url %q must be absolute", baseURL)
	}
	return &HTTPClient{
		baseURL:   parsed,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.With().Str("component", "imdb").Logger(),
	}, nil
}

// RatingsURL returns the ratings page address for id.
func (c *HTTPClient) RatingsURL(id string) string {
	rel := &url.URL{Path: "/title/" + url.PathEscape(id) + "/ratings/"}
	return c.baseURL.ResolveReference(rel).String()
}

// FetchRatingsPage downloads the ratings page of id. It never retries.
func (c *HTTPClient) FetchRatingsPage(ctx context.Context, id string) ([]byte, error) {
	endpoint := c.RatingsURL(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{ID: id, Cause: CauseNetwork, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	c.logger.Debug().Str("id", id).Str("url", endpoint).Msg("fetching ratings page")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{ID: id, Cause: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Str("id", id).Int("status", resp.StatusCode).Msg("unexpected ratings page status")
		return nil, &FetchError{ID: id, StatusCode: resp.StatusCode, Cause: classifyStatus(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return nil, &FetchError{ID: id, StatusCode: resp.StatusCode, Cause: CauseReadBody, Err: err}
	}
	if int64(len(body)) > maxPageBytes {
		c.logger.Warn().Str("id", id).Int64("limit", maxPageBytes).Msg("ratings page too large")
		return nil, &FetchError{ID: id, StatusCode: resp.StatusCode, Cause: CauseTooLarge}
	}
	return body, nil
}

func classifyStatus(code int) FetchCause {
	switch {
	case code == http.StatusNotFound:
		return CauseNotFound
	case code == http.StatusForbidden:
		return CauseForbidden
	case code == http.StatusTooManyRequests:
		return CauseRateLimited
	case code >= 500:
		return CauseUpstream5xx
	default:
		return CauseUnexpectedStatus
	}
}

func classifyTransport(err error) FetchCause {
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	return CauseNetwork
}
