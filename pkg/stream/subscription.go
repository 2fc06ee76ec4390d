// Package stream implements the subscription/streaming core of the
// connector: it multiplexes topic subscriptions over one websocket
// connection per group, keeps the connection alive with the exchange's
// application-level heartbeat, reconnects transparently after graceful
// remote closures and dispatches inbound events to the owning subscription.
package stream

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

// Callback consumes the data payload of an inbound event. Its error fails
// the invocation and, through the default dispatch policy, the owning
// session.
type Callback func(ctx context.Context, payload json.RawMessage) error

// Subscription describes one logical topic multiplexed over a session's
// connection. The channel name is used both in the registration frame and to
// route inbound events; routing picks the first subscription in group order
// whose channel matches, so channel names within a group should be unique.
type Subscription interface {
	// Channel returns the stable channel name of the topic.
	Channel() string

	// Params returns the parameter map sent verbatim in the registration
	// frame entry for this subscription.
	Params() map[string]string

	// Initialize runs once before the session's first connection attempt.
	// A failure aborts the session start.
	Initialize(ctx context.Context) error

	// Handle processes the data payload of an inbound event routed to this
	// subscription.
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Base carries the default subscription behavior: no initialization, and
// dispatch that invokes every registered callback concurrently with the same
// payload, waits for all of them, and reports the first failure. Concrete
// topics embed Base and add their channel name and parameters.
type Base struct {
	callbacks []Callback
}

// NewBase creates the shared part of a concrete subscription.
func NewBase(callbacks ...Callback) Base {
	return Base{callbacks: callbacks}
}

// Initialize implements Subscription. The default is a no-op.
func (b Base) Initialize(ctx context.Context) error {
	return nil
}

// Handle implements Subscription with the default fan-out policy. The caller
// does not proceed to the next frame until every callback has returned.
func (b Base) Handle(ctx context.Context, payload json.RawMessage) error {
	var g errgroup.Group
	for _, cb := range b.callbacks {
		cb := cb
		g.Go(func() error {
			return cb(ctx, payload)
		})
	}
	return g.Wait()
}
