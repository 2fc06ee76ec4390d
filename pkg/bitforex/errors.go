package bitforex

import "errors"

var (
	// ErrNoSubscriptions is returned by StartSubscriptions when no
	// subscription group has been composed, so there is nothing to stream.
	ErrNoSubscriptions = errors.New("no subscriptions to be started")

	// ErrMissingCredentials is returned when a signed operation is attempted
	// without API credentials configured.
	ErrMissingCredentials = errors.New("api credentials required for this operation")
)
