// Package rest implements the signed HTTP client behind the connector's
// exchange API methods. It owns URL construction, parameter cleaning,
// signature injection, retry and rate-limit policy, and the shared transport
// which is created lazily on first use and released by Close.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/veiloq/bitforex-connector/pkg/logging"
	"github.com/veiloq/bitforex-connector/pkg/ratelimit"
)

// Config holds configuration for the REST client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.bitforex.com/api/v1/".
	BaseURL string

	// APIKey and SecretKey authenticate signed calls. Public endpoints work
	// without them.
	APIKey    string
	SecretKey string

	// TLSConfig is applied to the shared transport when set.
	TLSConfig *tls.Config

	Timeout   time.Duration
	RateLimit ratelimit.Rate

	MaxRetries uint
	RetryDelay time.Duration

	// TraceLog enables request/response dumps at debug level.
	TraceLog bool

	Logger logging.Logger
}

// DefaultConfig returns the configuration used when fields are unset.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		RateLimit: ratelimit.Rate{
			Limit:    10,
			Interval: time.Second,
		},
		MaxRetries: 3,
		RetryDelay: time.Second,
		Logger:     logging.Nop(),
	}
}

// Response carries the outcome of a successful (2xx) REST call. Body is the
// raw JSON payload, left undecoded for the caller.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Client issues signed and unsigned requests against the exchange REST API.
// The underlying HTTP transport is created on first request and shared by
// all calls until Close.
type Client struct {
	config  *Config
	limiter ratelimit.RateLimiter
	logger  logging.Logger

	sessionOnce sync.Once
	session     *http.Client

	// nowMillis supplies the nonce for signed calls; replaced in tests.
	nowMillis func() int64
}

// NewClient creates a REST client. Defaults from DefaultConfig fill any
// unset timing, retry and logging fields.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RateLimit.Limit == 0 {
		config.RateLimit = defaults.RateLimit
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Client{
		config:    config,
		limiter:   ratelimit.NewTokenBucketLimiter(config.RateLimit),
		logger:    config.Logger,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Get issues a GET request against the resource.
func (c *Client) Get(ctx context.Context, resource string, params map[string]string, headers map[string]string, signed bool) (*Response, error) {
	return c.do(ctx, http.MethodGet, resource, nil, params, headers, signed)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, resource string, data map[string]string, params map[string]string, headers map[string]string, signed bool) (*Response, error) {
	return c.do(ctx, http.MethodPost, resource, data, params, headers, signed)
}

// Delete issues a DELETE request against the resource.
func (c *Client) Delete(ctx context.Context, resource string, params map[string]string, headers map[string]string, signed bool) (*Response, error) {
	return c.do(ctx, http.MethodDelete, resource, nil, params, headers, signed)
}

// Put issues a PUT request against the resource.
func (c *Client) Put(ctx context.Context, resource string, params map[string]string, headers map[string]string, signed bool) (*Response, error) {
	return c.do(ctx, http.MethodPut, resource, nil, params, headers, signed)
}

// SetRateLimit replaces the request pacing configuration.
func (c *Client) SetRateLimit(limit ratelimit.Rate) error {
	return c.limiter.SetLimit(limit)
}

// APIKeyHeader returns the headers identifying the account on endpoints that
// authenticate by key alone, such as the listen-key request.
func (c *Client) APIKeyHeader() map[string]string {
	return map[string]string{
		"Accept":       "application/json",
		"X-MBX-APIKEY": c.config.APIKey,
	}
}

// Close releases the shared transport if one was ever created. Safe to call
// multiple times.
func (c *Client) Close() error {
	if c.session != nil {
		c.session.CloseIdleConnections()
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, resource string, data, params, headers map[string]string, signed bool) (*Response, error) {
	params = CleanParams(params)

	if signed {
		if params == nil {
			params = map[string]string{}
		}
		params["accessKey"] = c.config.APIKey
		params["nonce"] = fmt.Sprintf("%d", c.nowMillis())
		params["signData"] = Sign(c.config.SecretKey, params, data)
	}

	req, err := c.buildRequest(ctx, method, resource, data, params, headers)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait error: %w", err)
	}

	c.logger.Debug("rest request",
		logging.String("method", method),
		logging.String("resource", resource),
		logging.Bool("signed", signed),
	)
	if c.config.TraceLog {
		c.traceRequest(req)
	}

	var resp *http.Response
	err = retry.Do(
		func() error {
			reqClone := req.Clone(ctx)
			if req.Body != nil {
				body, err := io.ReadAll(req.Body)
				if err != nil {
					return fmt.Errorf("error reading request body: %w", err)
				}
				reqClone.Body = io.NopCloser(bytes.NewReader(body))
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			var doErr error
			resp, doErr = c.getSession().Do(reqClone)
			if doErr != nil {
				return fmt.Errorf("http request error: %w", doErr)
			}

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("retryable status code: %d", resp.StatusCode)
			}

			return nil
		},
		retry.Attempts(c.config.MaxRetries),
		retry.Delay(c.config.RetryDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying request",
				logging.Int("attempt", int(n)),
				logging.String("resource", resource),
				logging.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.config.MaxRetries, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if c.config.TraceLog {
		c.traceResponse(resp, body)
	}
	c.logger.Debug("rest response",
		logging.String("resource", resource),
		logging.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, method, resource string, data, params, headers map[string]string) (*http.Request, error) {
	endpoint := c.config.BaseURL + resource
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		endpoint += "?" + values.Encode()
	}

	var body io.Reader
	if data != nil {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// getSession returns the shared HTTP transport, creating it on first use.
func (c *Client) getSession() *http.Client {
	c.sessionOnce.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.config.TLSConfig != nil {
			transport.TLSClientConfig = c.config.TLSConfig
		}
		c.session = &http.Client{
			Timeout:   c.config.Timeout,
			Transport: transport,
		}
	})
	return c.session
}

// CleanParams drops empty values and returns a copy safe to mutate. The
// exchange rejects requests carrying empty parameters.
func CleanParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	res := make(map[string]string, len(params))
	for key, value := range params {
		if value != "" {
			res[key] = value
		}
	}
	return res
}
