package azure

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/cenkalti/backoff/v4"
	"github.com/dgalpaj/azure-throttling-exporter/internal/config"
	"github.com/dgalpaj/azure-throttling-exporter/internal/logger"
	"github.com/dgalpaj/azure-throttling-exporter/internal/version"
)

// HeaderRateLimitRemaining is the ARM response header carrying the remaining
// call budget per resource category.
const HeaderRateLimitRemaining = "x-ms-ratelimit-remaining-resource"

// Startup probe retry constants
const (
	// ProbeMaxElapsedTime is the maximum time to spend verifying credentials at startup
	ProbeMaxElapsedTime = 30 * time.Second

	// ProbeInitialInterval is the initial backoff interval for the startup probe
	ProbeInitialInterval = 1 * time.Second

	// ProbeMaxInterval is the maximum backoff interval between probe attempts
	ProbeMaxInterval = 5 * time.Second
)

// tokenLogPrefixLen is how much of a bearer token is safe to log
const tokenLogPrefixLen = 10

// Snapshot maps a rate limit name to the remaining call count, as parsed from
// one response header. It lives for one poll cycle only.
type Snapshot map[string]int

// Client issues the authenticated ARM probe request and parses the
// throttling headers. The target URL and the underlying transport are fixed
// at construction; a fresh bearer token is requested on every fetch.
type Client struct {
	target string
	cred   azcore.TokenCredential
	scopes []string
	http   *http.Client
	logger *logger.Logger
}

// NewClient creates a rate-limit client for the configured subscription
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	cred, err := azidentity.NewClientSecretCredential(
		cfg.Credentials.TenantID,
		cfg.Credentials.ClientID,
		cfg.Credentials.ClientSecret,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	target := fmt.Sprintf("%s/subscriptions/%s/providers/%s/%s?api-version=%s",
		endpoint, cfg.SubscriptionID, cfg.ResourceProvider, cfg.ResourceType, cfg.APIVersion)

	// Only the connect is bounded; there is no overall request deadline.
	connectTimeout := time.Duration(cfg.ConnectTimeoutMillis) * time.Millisecond
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}

	return &Client{
		target: target,
		cred:   cred,
		scopes: []string{endpoint + "/.default"},
		http:   httpClient,
		logger: log,
	}, nil
}

// Target returns the fixed probe URL
func (c *Client) Target() string {
	return c.target
}

// Probe verifies that a token can be acquired, retrying with exponential
// backoff. Run once at startup so credential problems surface before the
// first poll cycle.
func (c *Client) Probe(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = ProbeInitialInterval
	bo.MaxInterval = ProbeMaxInterval
	bo.MaxElapsedTime = ProbeMaxElapsedTime

	operation := func() error {
		_, err := c.requestToken(ctx)
		if err != nil {
			c.logger.Debug("Startup credential probe failed, will retry", "error", err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("credential probe failed: %w", err)
	}

	return nil
}

// FetchRateLimits performs one authenticated GET against the target and
// returns the parsed remaining-budget snapshot. A 200 response without the
// rate-limit header yields an empty snapshot, not an error: missing telemetry
// is not the same as a broken connection.
func (c *Client) FetchRateLimits(ctx context.Context) (Snapshot, error) {
	token, err := c.requestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failure sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	// The body is irrelevant; drain it so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response code %d", resp.StatusCode)
	}

	header := resp.Header.Get(HeaderRateLimitRemaining)
	if header == "" {
		c.logger.Debug("Rate limit header absent, nothing to publish")
		return Snapshot{}, nil
	}

	c.logger.Info("Health probe OK", "header", header)
	return ParseRemaining(header)
}

// requestToken acquires a fresh bearer token. Tokens are requested every
// cycle; any caching is left to the credential implementation.
func (c *Client) requestToken(ctx context.Context) (string, error) {
	c.logger.Debug("Requesting new token")

	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: c.scopes})
	if err != nil {
		return "", err
	}

	c.logger.Debug("Requested token ok", "token_prefix", tokenPrefix(tok.Token))
	return tok.Token, nil
}

// ParseRemaining parses the x-ms-ratelimit-remaining-resource header value:
// a comma-separated list of name;count pairs. Any malformed entry fails the
// whole parse; this is the only validation performed on untrusted input, so
// it is deliberately strict.
func ParseRemaining(value string) (Snapshot, error) {
	entries := strings.Split(value, ",")
	snapshot := make(Snapshot, len(entries))

	for _, entry := range entries {
		fields := strings.Split(entry, ";")
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed rate limit entry %q", entry)
		}

		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed rate limit count in entry %q: %w", entry, err)
		}

		snapshot[fields[0]] = count
	}

	return snapshot, nil
}

// tokenPrefix returns a short, log-safe prefix of a bearer token
func tokenPrefix(token string) string {
	if len(token) <= tokenLogPrefixLen {
		return token
	}
	return token[:tokenLogPrefixLen] + "..."
}
