package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// MockExchange is a websocket server mimicking the exchange's streaming
// endpoint for tests: it records registration frames, answers heartbeat
// requests with the acknowledgment frame, and can emit events or terminate
// connections gracefully or abruptly on demand.
type MockExchange struct {
	server *httptest.Server
	url    string

	mu            sync.RWMutex
	connections   map[*websocket.Conn]bool
	registrations [][]byte
	pingCount     int

	onConnect        func(*websocket.Conn)
	autoAck          bool
	rejectConnection bool
}

// NewMockExchange creates and starts a mock streaming endpoint.
func NewMockExchange() *MockExchange {
	mock := &MockExchange{
		connections: make(map[*websocket.Conn]bool),
		autoAck:     true,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handleConnection))
	mock.url = "ws" + strings.TrimPrefix(mock.server.URL, "http")

	return mock
}

// URL returns the websocket URL of the mock endpoint.
func (m *MockExchange) URL() string {
	return m.url
}

// Close shuts down the mock endpoint.
func (m *MockExchange) Close() {
	m.server.Close()
}

// OnConnect sets a callback invoked for each new client connection.
func (m *MockExchange) OnConnect(callback func(*websocket.Conn)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = callback
}

// SetRejectConnection configures whether new connections are refused.
func (m *MockExchange) SetRejectConnection(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectConnection = reject
}

// SetAutoAck configures whether heartbeat requests are answered with the
// acknowledgment frame. Enabled by default.
func (m *MockExchange) SetAutoAck(ack bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAck = ack
}

// Emit broadcasts a structured event frame to all connected clients.
func (m *MockExchange) Emit(event string, data interface{}) error {
	frame, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return err
	}
	return m.EmitRaw(frame)
}

// EmitRaw broadcasts a raw text frame to all connected clients.
func (m *MockExchange) EmitRaw(frame []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for conn := range m.connections {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return err
		}
	}
	return nil
}

// CloseClientsGracefully sends a normal-closure close frame to every client,
// simulating the exchange's routine termination of idle connections.
func (m *MockExchange) CloseClientsGracefully() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.connections {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session expired"))
		// Give the close frame time to reach the client before tearing down.
		time.Sleep(50 * time.Millisecond)
		_ = conn.Close()
		delete(m.connections, conn)
	}
}

// DropClients severs every client connection without a close handshake.
func (m *MockExchange) DropClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.connections {
		_ = conn.UnderlyingConn().Close()
		delete(m.connections, conn)
	}
}

// Registrations returns a copy of every registration frame received so far,
// across all connections, in arrival order.
func (m *MockExchange) Registrations() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	frames := make([][]byte, len(m.registrations))
	copy(frames, m.registrations)
	return frames
}

// PingCount returns the number of heartbeat requests received.
func (m *MockExchange) PingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingCount
}

// ConnectionCount returns the number of active connections.
func (m *MockExchange) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// WaitForRegistrations blocks until the endpoint has received at least n
// registration frames or the timeout elapses, and reports which happened.
func (m *MockExchange) WaitForRegistrations(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(m.Registrations()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func (m *MockExchange) handleConnection(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	reject := m.rejectConnection
	onConnect := m.onConnect
	m.mu.RUnlock()

	if reject {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.addConnection(conn)
	if onConnect != nil {
		onConnect(conn)
	}

	defer func() {
		m.removeConnection(conn)
		conn.Close()
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if string(message) == HeartbeatRequest {
			m.mu.Lock()
			m.pingCount++
			ack := m.autoAck
			m.mu.Unlock()

			if ack {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(HeartbeatAck)); err != nil {
					return
				}
			}
			continue
		}

		m.mu.Lock()
		m.registrations = append(m.registrations, message)
		m.mu.Unlock()
	}
}

func (m *MockExchange) addConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = true
}

func (m *MockExchange) removeConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

// setupMockExchange creates a mock endpoint wired into the test lifecycle.
func setupMockExchange(t *testing.T) *MockExchange {
	t.Helper()
	mock := NewMockExchange()
	t.Cleanup(mock.Close)
	return mock
}
