// Package bitforex-connector provides a Go client for the Bitforex
// cryptocurrency exchange: signed REST API access and websocket streaming of
// market data.
//
// Core features:
//
//   - REST API methods for market data, funds and order management, with
//     HMAC-SHA256 request signing, retries and rate limiting
//   - Composable websocket subscriptions (order book, ticker, kline, trade,
//     account events) multiplexed over shared connections
//   - Application-level heartbeat keeping streaming connections alive
//   - Transparent reconnection after the exchange's routine closing of idle
//     connections, resending the original registration
//   - Fail-fast orchestration across concurrent streaming sessions
//
// The entry point is pkg/bitforex.Client. Subscriptions are grouped with
// ComposeSubscriptions (each group shares one websocket connection) and
// started with StartSubscriptions, which blocks until cancellation or the
// first unrecoverable session failure:
//
//	client := bitforex.NewClient(&bitforex.Options{
//		APIKey:    os.Getenv("BITFOREX_API_KEY"),
//		SecretKey: os.Getenv("BITFOREX_SEC_KEY"),
//	})
//	defer client.Close()
//
//	pair := bitforex.NewPair("ETH", "BTC")
//	client.ComposeSubscriptions(
//		bitforex.NewOrderBookSubscription(pair, "0", onOrderBook),
//		bitforex.NewTradeSubscription(pair, "20", onTrade),
//	)
//
//	if err := client.StartSubscriptions(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Callbacks receive the raw data payload of each inbound event and run
// concurrently per frame; the session waits for all callbacks before reading
// the next frame, and a callback error is fatal to the owning session.
//
// The streaming core lives in pkg/stream and is exchange-agnostic apart from
// the wire format; pkg/rest implements the signed HTTP client; pkg/logging
// and pkg/ratelimit provide the injected logger and REST pacing.
package bitforexconnector
