// Package spacex is the HTTP client for the public SpaceX API.
package spacex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
)

// DefaultBaseURL is the public API root
const DefaultBaseURL = "https://api.spacexdata.com"

// Observer reports whether the network is currently reachable
type Observer interface {
	IsConnected() bool
}

// Versions selects the API version per resource
type Versions struct {
	Launches string
	Rockets  string
	Company  string
}

// Client calls the SpaceX API. It satisfies the launch, rocket and company
// remote service interfaces
type Client struct {
	baseURL    string
	versions   Versions
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithVersions overrides the per-resource API versions
func WithVersions(v Versions) Option {
	return func(client *Client) {
		client.versions = v
	}
}

// WithObserver makes every request fail fast while o reports offline
func WithObserver(o Observer) Option {
	return func(client *Client) {
		client.observer = o
	}
}

// WithRateLimit caps outbound requests per second
func WithRateLimit(perSecond float64, burst int) Option {
	return func(client *Client) {
		if perSecond <= 0 {
			client.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets how many times a GET is attempted in total
func WithRetry(attempts int, delay time.Duration) Option {
	return func(client *Client) {
		if attempts < 1 {
			attempts = 1
		}
		client.attempts = uint(attempts)
		client.retryDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(client *Client) {
		client.logger = l
	}
}

// New creates a client for baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		versions:   Versions{Launches: "v5", Rockets: "v4", Company: "v4"},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type request struct {
	endpoint    string // metrics label
	method      string
	path        string
	body        any
	bypassCache bool
}

// send performs req and returns the 2xx body. GET requests are retried on
// connectivity failures
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if c.observer != nil && !c.observer.IsConnected() {
		c.logger.Debug("skipping request while offline", "endpoint", req.endpoint)
		return nil, &NetworkError{Kind: apperror.KindNetworkUnavailable, Endpoint: req.endpoint, Err: ErrOffline}
	}

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", req.endpoint, err)
		}
	}

	if req.method != http.MethodGet {
		return c.sendOnce(ctx, req, payload)
	}

	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.sendOnce(ctx, req, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying spacex request", "endpoint", req.endpoint, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) sendOnce(ctx context.Context, req request, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Kind: apperror.KindNetworkUnavailable, Endpoint: req.endpoint, Err: fmt.Errorf("%w: %w", errRateLimited, err)}
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", req.endpoint, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.bypassCache {
		httpReq.Header.Set("Cache-Control", "no-cache")
		httpReq.Header.Set("Pragma", "no-cache")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RemoteRequest(req.endpoint, "error", time.Since(start))
		netErr := transportError(req.endpoint, err)
		c.logger.Debug("spacex request failed", "endpoint", req.endpoint, "kind", netErr.Kind.String(), "error", err)
		return nil, netErr
	}
	defer resp.Body.Close()

	metrics.RemoteRequest(req.endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{Kind: apperror.KindServer, Endpoint: req.endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(req.endpoint, err)
	}
	return body, nil
}

func (c *Client) decode(endpoint string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return decodeError(endpoint, err)
	}
	return nil
}
