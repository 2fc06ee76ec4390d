// Package bitforex provides the Bitforex exchange client: REST API methods
// and composable websocket subscriptions multiplexed over per-group
// streaming sessions.
package bitforex

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/veiloq/bitforex-connector/pkg/logging"
	"github.com/veiloq/bitforex-connector/pkg/ratelimit"
	"github.com/veiloq/bitforex-connector/pkg/rest"
	"github.com/veiloq/bitforex-connector/pkg/stream"
	"golang.org/x/sync/errgroup"
)

const (
	// RestAPIEndpoint is the root of the exchange REST API.
	RestAPIEndpoint = "https://api.bitforex.com/api/v1/"

	// StreamEndpoint is the websocket endpoint all sessions connect to.
	StreamEndpoint = "wss://www.bitforex.com/mkapi/coinGroup1/ws"
)

// Options configures the client.
type Options struct {
	// APIKey and SecretKey authenticate signed REST calls and the account
	// event stream. Public market data works without them.
	APIKey    string
	SecretKey string

	// TLSConfig is applied to both the REST transport and websocket dials.
	TLSConfig *tls.Config

	HTTPTimeout          time.Duration
	MaxRequestsPerSecond int

	// HeartbeatInterval is the streaming keepalive period. Defaults to the
	// exchange's 30 seconds.
	HeartbeatInterval time.Duration

	// RESTEndpoint and WebsocketEndpoint override the production endpoints,
	// mainly for tests.
	RESTEndpoint      string
	WebsocketEndpoint string

	// APITraceLog enables wire-level dumps of REST traffic at debug level.
	APITraceLog bool

	Logger logging.Logger
}

// Client is the facade over the exchange: REST methods plus subscription
// groups started as concurrent streaming sessions.
type Client struct {
	options *Options
	rest    *rest.Client
	logger  logging.Logger

	// groups accumulates subscription groups before StartSubscriptions;
	// one streaming session is launched per group.
	groups [][]stream.Subscription
}

// NewClient creates a Bitforex client with the given options.
func NewClient(options *Options) *Client {
	if options == nil {
		options = &Options{}
	}
	if options.RESTEndpoint == "" {
		options.RESTEndpoint = RestAPIEndpoint
	}
	if options.WebsocketEndpoint == "" {
		options.WebsocketEndpoint = StreamEndpoint
	}
	if options.HeartbeatInterval == 0 {
		options.HeartbeatInterval = 30 * time.Second
	}
	if options.Logger == nil {
		options.Logger = logging.Nop()
	}

	restConfig := &rest.Config{
		BaseURL:   options.RESTEndpoint,
		APIKey:    options.APIKey,
		SecretKey: options.SecretKey,
		TLSConfig: options.TLSConfig,
		Timeout:   options.HTTPTimeout,
		TraceLog:  options.APITraceLog,
		Logger:    options.Logger,
	}
	if options.MaxRequestsPerSecond > 0 {
		restConfig.RateLimit = ratelimit.Rate{
			Limit:    options.MaxRequestsPerSecond,
			Interval: time.Second,
		}
	}

	return &Client{
		options: options,
		rest:    rest.NewClient(restConfig),
		logger:  options.Logger,
	}
}

// ComposeSubscriptions appends one subscription group. All subscriptions in
// a group share one physical websocket connection; groups are independent.
// Grouping is fixed once StartSubscriptions is called.
func (c *Client) ComposeSubscriptions(subscriptions ...stream.Subscription) {
	c.groups = append(c.groups, subscriptions)
}

// StartSubscriptions launches one streaming session per composed group and
// blocks until every session has reached a terminal state. In normal
// operation sessions run until ctx is cancelled, and StartSubscriptions
// returns nil. The first session failure cancels the remaining sessions
// cooperatively and is returned, identifying the failed session.
func (c *Client) StartSubscriptions(ctx context.Context) error {
	if len(c.groups) == 0 {
		return ErrNoSubscriptions
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, group := range c.groups {
		i, group := i, group
		session := stream.NewSession(stream.Config{
			URL:               c.options.WebsocketEndpoint,
			HeartbeatInterval: c.options.HeartbeatInterval,
			TLSConfig:         c.options.TLSConfig,
			Logger:            c.logger.WithFields(logging.Int("session", i)),
		}, group)

		g.Go(func() error {
			if err := session.Run(ctx); err != nil {
				c.logger.Error("unrecoverable error occurred while processing messages",
					logging.Int("session", i),
					logging.Error(err),
				)
				c.logger.Info("all websockets scheduled for shutdown")
				return fmt.Errorf("session %d: %w", i, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases the REST transport if one was ever created. Idempotent.
func (c *Client) Close() error {
	return c.rest.Close()
}
