package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/veiloq/bitforex-connector/pkg/logging"
)

const (
	// HeartbeatRequest is the literal frame keeping the connection alive.
	HeartbeatRequest = "ping_p"

	// HeartbeatAck is the literal acknowledgment frame. It is consumed by
	// the session and never dispatched to subscriptions.
	HeartbeatAck = "pong_p"
)

// Config holds configuration for a streaming session.
type Config struct {
	// URL is the websocket endpoint of the exchange.
	URL string

	// HeartbeatInterval is the application-level keepalive period.
	// Defaults to 30 seconds, matching the exchange contract.
	HeartbeatInterval time.Duration

	// HandshakeTimeout bounds the websocket dial. Defaults to 10 seconds.
	HandshakeTimeout time.Duration

	// TLSConfig is applied to the dialer when set.
	TLSConfig *tls.Config

	Logger logging.Logger
}

// registrationEntry is one element of the registration frame sent after
// every (re)connection.
type registrationEntry struct {
	Type  string            `json:"type"`
	Event string            `json:"event"`
	Param map[string]string `json:"param"`
}

// Session owns exactly one physical websocket connection at a time and runs
// the subscribe/receive/heartbeat cycle for its subscription group. The
// connection is recreated transparently after each graceful remote closure;
// the session itself ends only on unrecoverable error or cancellation.
type Session struct {
	config        Config
	subscriptions []Subscription
	ping          *heartbeat
	logger        logging.Logger
}

// NewSession creates a session for one subscription group. The group is
// read-only for the life of the session.
func NewSession(config Config, subscriptions []Subscription) *Session {
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = 30 * time.Second
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}

	return &Session{
		config:        config,
		subscriptions: subscriptions,
		ping:          newHeartbeat(config.HeartbeatInterval),
		logger:        config.Logger,
	}
}

// Run executes the session until the context is cancelled (returns nil) or
// an unrecoverable error occurs. Subscription initialization hooks run once,
// before the first connection attempt; they are not re-run on reconnect.
func (s *Session) Run(ctx context.Context) error {
	for _, sub := range s.subscriptions {
		if err := sub.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing subscription %q: %w", sub.Channel(), err)
		}
	}

	// Marshaled once so every reconnection resends the identical frame.
	registration, err := s.registrationFrame()
	if err != nil {
		return fmt.Errorf("building registration frame: %w", err)
	}

	for {
		s.logger.Debug("initiating websocket connection", logging.String("url", s.config.URL))

		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connecting to %s: %w", s.config.URL, err)
		}

		err = s.receive(ctx, conn, registration)

		if ctx.Err() != nil {
			s.logger.Warn("websocket requested to be shut down")
			return nil
		}
		if isGracefulClose(err) {
			s.logger.Debug("connection closed by remote, reconnecting")
			continue
		}

		s.logger.Error("websocket session failed", logging.Error(err))
		return err
	}
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
		TLSClientConfig:  s.config.TLSConfig,
	}
	conn, _, err := dialer.DialContext(ctx, s.config.URL, nil)
	return conn, err
}

// receive sends the registration frame and processes inbound frames until
// the connection ends. Exactly one read per iteration; the loop does not
// advance to the next frame until the current one is fully dispatched.
func (s *Session) receive(ctx context.Context, conn *websocket.Conn, registration []byte) error {
	// A read blocked on a quiet connection observes cancellation only when
	// the read yields, so close the connection when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	s.logger.Debug("sending registration", logging.String("frame", string(registration)))
	if err := conn.WriteMessage(websocket.TextMessage, registration); err != nil {
		return err
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if string(frame) != HeartbeatAck {
			if err := s.dispatch(ctx, frame); err != nil {
				return err
			}
		}

		if s.ping.due() {
			s.logger.Debug("sending heartbeat")
			if err := conn.WriteMessage(websocket.TextMessage, []byte(HeartbeatRequest)); err != nil {
				return err
			}
		}
	}
}

// dispatch routes a structured frame to the first subscription whose channel
// matches the frame's event. Frames matching no subscription are dropped;
// unrecognized events are expected and not an error.
func (s *Session) dispatch(ctx context.Context, frame []byte) error {
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return &ProtocolError{Frame: string(frame), Err: err}
	}

	for _, sub := range s.subscriptions {
		if sub.Channel() == msg.Event {
			if err := sub.Handle(ctx, msg.Data); err != nil {
				return &CallbackError{Channel: msg.Event, Err: err}
			}
			break
		}
	}
	return nil
}

func (s *Session) registrationFrame() ([]byte, error) {
	entries := make([]registrationEntry, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		entries = append(entries, registrationEntry{
			Type:  "subHq",
			Event: sub.Channel(),
			Param: sub.Params(),
		})
	}
	return json.Marshal(entries)
}

// isGracefulClose distinguishes the exchange's routine closing of idle or
// expired connections from faults that must surface to the caller.
func isGracefulClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
