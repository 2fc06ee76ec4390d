package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&Config{
		BaseURL:    server.URL + "/api/v1/",
		APIKey:     "test-key",
		SecretKey:  "test-secret",
		RetryDelay: time.Millisecond,
	})
	client.nowMillis = func() int64 { return 1577836800000 }

	return client, server
}

func TestClient_Get(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/ticker", r.URL.Path)
		assert.Equal(t, "coin-btc-eth", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"data":{"last":0.05},"success":true}`))
	})

	resp, err := client.Get(context.Background(), "market/ticker",
		map[string]string{"symbol": "coin-btc-eth"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.True(t, body.Success)
}

func TestClient_SignedRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "test-key", query.Get("accessKey"))
		assert.Equal(t, "1577836800000", query.Get("nonce"))

		// The server recomputes the signature over everything but signData.
		params := map[string]string{}
		for key := range query {
			if key != "signData" {
				params[key] = query.Get(key)
			}
		}
		assert.Equal(t, Sign("test-secret", params, nil), query.Get("signData"))

		w.Write([]byte(`{"success":true}`))
	})

	_, err := client.Post(context.Background(), "fund/allAccount", nil, nil, nil, true)
	require.NoError(t, err)
}

func TestClient_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"1013","success":false}`))
	})

	_, err := client.Get(context.Background(), "market/symbols", nil, nil, false)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "1013")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true}`))
	})

	resp, err := client.Get(context.Background(), "market/symbols", nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestClient_HeadersForwarded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(`{"listenKey":"abc"}`))
	})

	resp, err := client.Post(context.Background(), "userDataStream", nil, nil, client.APIKeyHeader(), false)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Body), "abc")
}

func TestClient_CloseIdempotent(t *testing.T) {
	client := NewClient(nil)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}

func TestCleanParams(t *testing.T) {
	cleaned := CleanParams(map[string]string{
		"symbol": "coin-btc-eth",
		"size":   "",
	})
	assert.Equal(t, map[string]string{"symbol": "coin-btc-eth"}, cleaned)

	assert.Nil(t, CleanParams(nil))
}
