package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/domain/release"
	"github.com/oshokin/clitools/internal/logger"
	"github.com/oshokin/clitools/internal/version"
)

var (
	// ErrNetwork is returned for transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("release api request failed")
	// ErrAPIDecode is returned when the response body is not release metadata.
	ErrAPIDecode = errors.New("decode release metadata")
	// ErrNoMatchingAsset is returned when no asset URL contains the requested fragment.
	ErrNoMatchingAsset = errors.New("no matching release asset")
)

// Client queries the release API.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client
	// baseURL is the API root, e.g. https://api.github.com.
	baseURL string
	// userAgent is sent with every request; the API rejects requests without it.
	userAgent string
	// callTimeout bounds a single API call.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithCallTimeout sets the timeout of a single API call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for the public API with the given options applied.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:  http.DefaultClient,
		baseURL:     config.DefaultAPIURL,
		userAgent:   version.UserAgent(),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// LatestRelease fetches the latest release of org/repository.
func (c *Client) LatestRelease(ctx context.Context, org, repository string) (*release.Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		c.baseURL, url.PathEscape(org), url.PathEscape(repository))

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrNetwork, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	logger.DebugKV(ctx, "Requesting latest release", "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		if until, ok := rateLimitResetIn(resp.Header, time.Now()); ok {
			return nil, fmt.Errorf("%w: %s: rate limit exceeded, retry in %s",
				ErrNetwork, resp.Status, until.Round(time.Second))
		}

		return nil, fmt.Errorf("%w: %s: %s", ErrNetwork, endpoint, resp.Status)
	}

	var latest release.Release
	if err = json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIDecode, err)
	}

	return &latest, nil
}

// Resolve returns the first asset of the latest release whose download URL
// contains binPartName. The API lists assets in upload order; when several
// match, the first one wins and the ambiguity is logged.
func (c *Client) Resolve(ctx context.Context, org, repository, binPartName string) (release.Asset, error) {
	latest, err := c.LatestRelease(ctx, org, repository)
	if err != nil {
		return release.Asset{}, err
	}

	matches := latest.MatchingAssets(binPartName)
	if len(matches) == 0 {
		return release.Asset{}, fmt.Errorf("%w: %q in %s/%s %s",
			ErrNoMatchingAsset, binPartName, org, repository, latest.TagName)
	}

	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, asset := range matches {
			names = append(names, asset.Name)
		}

		logger.WarnKV(ctx, "Several assets match, using the first one",
			"fragment", binPartName, "matches", names)
	}

	logger.InfoKV(ctx, "Resolved release asset",
		"tag", latest.TagName, "asset", matches[0].Name, "content_type", matches[0].ContentType)

	return matches[0], nil
}

// callContext returns a context bounded by the client's call timeout if configured.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// rateLimitResetIn reports how long until the rate limit resets when the
// response says the anonymous quota is exhausted.
func rateLimitResetIn(h http.Header, now time.Time) (time.Duration, bool) {
	if h.Get("X-Ratelimit-Remaining") != "0" {
		return 0, false
	}

	raw := h.Get("X-Ratelimit-Reset")
	if raw == "" {
		return 0, false
	}

	reset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return max(time.Unix(reset, 0).Sub(now), 0), true
}
