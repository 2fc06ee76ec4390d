package bitforex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/bitforex-connector/pkg/stream"
)

func TestStartSubscriptions_NoGroups(t *testing.T) {
	mock := stream.NewMockExchange()
	defer mock.Close()

	client := NewClient(&Options{WebsocketEndpoint: mock.URL()})

	err := client.StartSubscriptions(context.Background())
	require.ErrorIs(t, err, ErrNoSubscriptions)
	assert.Equal(t, 0, mock.ConnectionCount(), "no network I/O on a configuration error")
	assert.Empty(t, mock.Registrations())
}

func TestStartSubscriptions_OneSessionPerGroup(t *testing.T) {
	mock := stream.NewMockExchange()
	defer mock.Close()

	client := NewClient(&Options{WebsocketEndpoint: mock.URL()})
	client.ComposeSubscriptions(
		NewOrderBookSubscription(NewPair("ETH", "BTC"), "0"),
		NewTradeSubscription(NewPair("ETH", "BTC"), "20"),
	)
	client.ComposeSubscriptions(
		NewTicker24hSubscription(NewPair("ETH", "BTC")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.StartSubscriptions(ctx)
	}()

	require.True(t, mock.WaitForRegistrations(2, 2*time.Second),
		"each group registers over its own connection")

	// One frame carries both subscriptions of the first group, the other
	// carries the second group's single subscription.
	channels := map[string]bool{}
	for _, frame := range mock.Registrations() {
		var entries []struct {
			Type  string `json:"type"`
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(frame, &entries))
		for _, entry := range entries {
			assert.Equal(t, "subHq", entry.Type)
			channels[entry.Event] = true
		}
	}
	assert.Equal(t, map[string]bool{"depth10": true, "trade": true, "ticker": true}, channels)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for StartSubscriptions to return")
	}
}

func TestStartSubscriptions_FailFastCrossCancellation(t *testing.T) {
	mock := stream.NewMockExchange()
	defer mock.Close()

	boom := errors.New("boom")
	client := NewClient(&Options{WebsocketEndpoint: mock.URL()})

	// Session 0 fails on its first dispatch; sessions 1 and 2 would stream
	// forever if not cancelled.
	client.ComposeSubscriptions(NewTicker24hSubscription(NewPair("ETH", "BTC"),
		func(ctx context.Context, payload json.RawMessage) error {
			return boom
		}))
	client.ComposeSubscriptions(NewTradeSubscription(NewPair("ETH", "BTC"), "20"))
	client.ComposeSubscriptions(NewOrderBookSubscription(NewPair("ETH", "BTC"), "0"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.StartSubscriptions(context.Background())
	}()

	require.True(t, mock.WaitForRegistrations(3, 2*time.Second))
	require.NoError(t, mock.Emit("ticker", map[string]interface{}{"last": 0.05}))

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, boom, "the aggregate failure carries the original error")
		assert.Contains(t, err.Error(), "session 0", "the failure identifies the session")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout: surviving sessions were not cancelled")
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client := NewClient(nil)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}

func newRESTTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&Options{
		APIKey:       "key",
		SecretKey:    "secret",
		RESTEndpoint: server.URL + "/api/v1/",
	})
}

func TestGetTicker_ParamShaping(t *testing.T) {
	client := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/market/ticker", r.URL.Path)
		assert.Equal(t, "coin-btc-eth", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"data":{"last":0.05},"success":true}`))
	})

	resp, err := client.GetTicker(context.Background(), NewPair("ETH", "BTC"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetCandlesticks_ParamShaping(t *testing.T) {
	client := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/kline", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "coin-btc-eth", query.Get("symbol"))
		assert.Equal(t, "1week", query.Get("ktype"))
		assert.Equal(t, "5", query.Get("size"))
		w.Write([]byte(`{"data":[],"success":true}`))
	})

	_, err := client.GetCandlesticks(context.Background(), NewPair("ETH", "BTC"), Interval1Week, "5")
	require.NoError(t, err)
}

func TestCreateOrder_SignedParams(t *testing.T) {
	client := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/trade/placeOrder", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "coin-btc-eth", query.Get("symbol"))
		assert.Equal(t, "2", query.Get("tradeType"))
		assert.Equal(t, "1", query.Get("amount"))
		assert.Equal(t, "0.05", query.Get("price"))
		assert.Equal(t, "key", query.Get("accessKey"))
		assert.NotEmpty(t, query.Get("nonce"))
		assert.NotEmpty(t, query.Get("signData"))
		w.Write([]byte(`{"data":{"orderId":10},"success":true}`))
	})

	_, err := client.CreateOrder(context.Background(), NewPair("ETH", "BTC"), OrderSideSell, "1", "0.05")
	require.NoError(t, err)
}

func TestFetchListenKey(t *testing.T) {
	client := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/userDataStream", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(`{"data":"listen-key-1","success":true}`))
	})

	key, err := client.FetchListenKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "listen-key-1", key)
}

func TestFetchListenKey_RequiresCredentials(t *testing.T) {
	client := NewClient(nil)
	_, err := client.FetchListenKey(context.Background())
	require.ErrorIs(t, err, ErrMissingCredentials)
}
