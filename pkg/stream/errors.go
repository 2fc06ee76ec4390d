package stream

import "fmt"

// ProtocolError reports an inbound frame the session could not interpret.
// It is fatal to the session: malformed frames indicate a contract change or
// a corrupted connection, not a normal operational event.
type ProtocolError struct {
	Frame string
	Err   error
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in frame %q: %v", e.Frame, e.Err)
}

// Unwrap returns the underlying error
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// CallbackError reports a subscriber callback failure during dispatch. The
// session fails rather than masking the error.
type CallbackError struct {
	Channel string
	Err     error
}

// Error implements the error interface
func (e *CallbackError) Error() string {
	return fmt.Sprintf("callback error on channel %q: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying error
func (e *CallbackError) Unwrap() error {
	return e.Err
}
