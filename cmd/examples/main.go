package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veiloq/bitforex-connector/pkg/bitforex"
	"github.com/veiloq/bitforex-connector/pkg/logging"
)

func main() {
	logger := logging.NewZapLogger(logging.WithDebugLevel())

	client := bitforex.NewClient(&bitforex.Options{
		// API credentials (optional for public endpoints)
		APIKey:    os.Getenv("BITFOREX_API_KEY"),
		SecretKey: os.Getenv("BITFOREX_SEC_KEY"),

		HTTPTimeout:          15 * time.Second,
		MaxRequestsPerSecond: 10,

		Logger: logger,
	})
	defer client.Close()

	// Cancel on SIGINT/SIGTERM so streaming shuts down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pair := bitforex.NewPair("ETH", "BTC")

	// REST API
	logger.Info("fetching exchange info")
	if resp, err := client.GetExchangeInfo(ctx); err != nil {
		logger.Error("failed to fetch exchange info", logging.Error(err))
		os.Exit(1)
	} else {
		logger.Info("exchange info", logging.String("body", string(resp.Body)))
	}

	logger.Info("fetching ticker")
	if resp, err := client.GetTicker(ctx, pair); err != nil {
		logger.Error("failed to fetch ticker", logging.Error(err))
	} else {
		logger.Info("ticker", logging.String("body", string(resp.Body)))
	}

	logger.Info("fetching candlesticks")
	if resp, err := client.GetCandlesticks(ctx, pair, bitforex.Interval1Week, "5"); err != nil {
		logger.Error("failed to fetch candlesticks", logging.Error(err))
	} else {
		logger.Info("candlesticks", logging.String("body", string(resp.Body)))
	}

	// Websockets: bundle several subscriptions into a single connection.
	onOrderBook := func(ctx context.Context, payload json.RawMessage) error {
		logger.Info("order book update", logging.String("payload", string(payload)))
		return nil
	}
	onTrade := func(ctx context.Context, payload json.RawMessage) error {
		logger.Info("trade update", logging.String("payload", string(payload)))
		return nil
	}

	client.ComposeSubscriptions(
		bitforex.NewOrderBookSubscription(pair, "0", onOrderBook),
		bitforex.NewTradeSubscription(pair, "20", onTrade),
	)

	logger.Info("starting subscriptions")
	if err := client.StartSubscriptions(ctx); err != nil {
		logger.Error("streaming failed", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}
