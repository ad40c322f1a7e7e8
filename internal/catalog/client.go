package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Apple Music API host used by the desktop clients
	DefaultBaseURL = "https://amp-api.music.apple.com"

	defaultTimeout = 30 * time.Second
	defaultRate    = 10 // requests per second
	defaultBurst   = 5
)

// StatusError is returned for non-success HTTP responses.
// It unwraps to a domain sentinel when the status has one.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Client talks to the Apple Music API.
// Implements domain.LibraryFetcher and domain.CatalogBrowser.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit sets request pacing. rate.Inf disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a new catalog API client
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an authenticated GET request
func (c *Client) doRequest(ctx context.Context, tokens domain.Tokens, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("accept", "*/*")
	req.Header.Set("authorization", "Bearer "+tokens.Developer)
	req.Header.Set("media-user-token", tokens.MediaUser)

	c.logger.Debug("catalog request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &StatusError{StatusCode: resp.StatusCode, Err: domain.ErrAuthFailed}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &StatusError{StatusCode: resp.StatusCode, Err: domain.ErrItemNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("catalog request error", "status", resp.StatusCode, "bodyLen", len(body))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	return body, nil
}

// Album returns a catalog album with its tracks
func (c *Client) Album(ctx context.Context, tokens domain.Tokens, storefront, id string) (*domain.Album, error) {
	return c.container(ctx, tokens, storefront, "albums", id, domain.ViewKindAlbum)
}

// Playlist returns a catalog playlist with its tracks
func (c *Client) Playlist(ctx context.Context, tokens domain.Tokens, storefront, id string) (*domain.Album, error) {
	return c.container(ctx, tokens, storefront, "playlists", id, domain.ViewKindPlaylist)
}

func (c *Client) container(ctx context.Context, tokens domain.Tokens, storefront, resource, id string, kind domain.ViewKind) (*domain.Album, error) {
	if !tokens.Complete() {
		return nil, domain.ErrNotAuthenticated
	}
	if storefront == "" {
		storefront = "us"
	}

	path := fmt.Sprintf("/v1/catalog/%s/%s/%s", url.PathEscape(storefront), resource, url.PathEscape(id))
	body, err := c.doRequest(ctx, tokens, path, nil)
	if err != nil {
		return nil, err
	}

	var resp ResourceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, domain.ErrItemNotFound
	}

	return MapContainer(resp.Data[0], kind), nil
}
