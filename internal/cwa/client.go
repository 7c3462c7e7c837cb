package cwa

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the CWA open-data file API.
	DefaultBaseURL = "https://opendata.cwa.gov.tw/fileapi/v1/opendataapi"

	// DatasetID is the agricultural weather forecast dataset.
	DatasetID = "F-A0010-001"

	defaultTimeout = 30 * time.Second

	// Response bodies are bounded; the full dataset is a few MB.
	maxBodyBytes = 32 << 20
)

// Failure classification for calls against the upstream API. Callers
// match with errors.Is; the service layer converts both to absent
// results.
var (
	// ErrTransport covers timeouts, connection failures, non-2xx
	// responses, and an open circuit breaker.
	ErrTransport = errors.New("cwa: transport failure")

	// ErrDecode covers response bodies that are not valid JSON.
	ErrDecode = errors.New("cwa: decode failure")
)

// Client fetches forecast payloads from the CWA open-data API.
// A circuit breaker guards the upstream: after repeated consecutive
// failures the breaker opens and calls fail fast for a cooldown
// period instead of hammering a struggling endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests to point at a
// local fake server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithInsecureSkipVerify disables TLS certificate verification. The
// CWA file API endpoint has a history of certificate chain problems;
// only enable this when the environment requires it.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		c.http.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in, see doc
		}
	}
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "cwa-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a single GET against the forecast dataset and decodes
// the payload. There is no retry: a failed fetch is reported to the
// caller, which decides whether stale cached data can stand in.
func (c *Client) Fetch(ctx context.Context) (*Payload, error) {
	u, err := url.Parse(c.baseURL + "/" + DatasetID)
	if err != nil {
		return nil, fmt.Errorf("%w: building request url: %v", ErrTransport, err)
	}
	q := u.Query()
	q.Set("Authorization", c.apiKey)
	q.Set("downloadType", "WEB")
	q.Set("format", "JSON")
	u.RawQuery = q.Encode()

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
		}
		req.Header.Set("User-Agent", "cwa-weather/1.0")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
		}

		var p Payload
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return &p, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return nil, err
	}
	return result.(*Payload), nil
}
