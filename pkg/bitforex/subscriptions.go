package bitforex

import (
	"context"
	"fmt"

	"github.com/veiloq/bitforex-connector/pkg/stream"
)

// The concrete subscriptions differ only in channel name and parameter
// shape; all dispatch behavior comes from stream.Base.

// OrderBookSubscription streams order book snapshots for one pair.
type OrderBookSubscription struct {
	stream.Base
	pair  Pair
	depth string
}

// NewOrderBookSubscription creates an order book subscription. Depth selects
// the snapshot variant offered by the exchange, e.g. "0".
func NewOrderBookSubscription(pair Pair, depth string, callbacks ...stream.Callback) *OrderBookSubscription {
	return &OrderBookSubscription{
		Base:  stream.NewBase(callbacks...),
		pair:  pair,
		depth: depth,
	}
}

func (s *OrderBookSubscription) Channel() string {
	return "depth10"
}

func (s *OrderBookSubscription) Params() map[string]string {
	return map[string]string{
		"businessType": s.pair.String(),
		"dType":        s.depth,
	}
}

// Ticker24hSubscription streams 24-hour rolling ticker statistics.
type Ticker24hSubscription struct {
	stream.Base
	pair Pair
}

func NewTicker24hSubscription(pair Pair, callbacks ...stream.Callback) *Ticker24hSubscription {
	return &Ticker24hSubscription{
		Base: stream.NewBase(callbacks...),
		pair: pair,
	}
}

func (s *Ticker24hSubscription) Channel() string {
	return "ticker"
}

func (s *Ticker24hSubscription) Params() map[string]string {
	return map[string]string{
		"businessType": s.pair.String(),
	}
}

// KlineSubscription streams candlestick updates at a fixed interval.
type KlineSubscription struct {
	stream.Base
	pair     Pair
	size     string
	interval CandlestickInterval
}

func NewKlineSubscription(pair Pair, size string, interval CandlestickInterval, callbacks ...stream.Callback) *KlineSubscription {
	return &KlineSubscription{
		Base:     stream.NewBase(callbacks...),
		pair:     pair,
		size:     size,
		interval: interval,
	}
}

func (s *KlineSubscription) Channel() string {
	return "kline"
}

func (s *KlineSubscription) Params() map[string]string {
	return map[string]string{
		"businessType": s.pair.String(),
		"size":         s.size,
		"kType":        string(s.interval),
	}
}

// TradeSubscription streams executed trades.
type TradeSubscription struct {
	stream.Base
	pair Pair
	size string
}

func NewTradeSubscription(pair Pair, size string, callbacks ...stream.Callback) *TradeSubscription {
	return &TradeSubscription{
		Base: stream.NewBase(callbacks...),
		pair: pair,
		size: size,
	}
}

func (s *TradeSubscription) Channel() string {
	return "trade"
}

func (s *TradeSubscription) Params() map[string]string {
	return map[string]string{
		"businessType": s.pair.String(),
		"size":         s.size,
	}
}

// ListenKeyFunc fetches the listen key that authorizes the account event
// stream. Client.FetchListenKey satisfies it.
type ListenKeyFunc func(ctx context.Context) (string, error)

// AccountSubscription streams account events (orders, balances). Its
// initialization hook fetches the listen key before the session's first
// connection attempt; a fetch failure aborts the session start.
type AccountSubscription struct {
	stream.Base
	fetch     ListenKeyFunc
	listenKey string
}

func NewAccountSubscription(fetch ListenKeyFunc, callbacks ...stream.Callback) *AccountSubscription {
	return &AccountSubscription{
		Base:  stream.NewBase(callbacks...),
		fetch: fetch,
	}
}

func (s *AccountSubscription) Channel() string {
	return "userData"
}

// Initialize implements stream.Subscription. It runs once per session
// lifetime and is not re-run on reconnect.
func (s *AccountSubscription) Initialize(ctx context.Context) error {
	key, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching listen key: %w", err)
	}
	s.listenKey = key
	return nil
}

func (s *AccountSubscription) Params() map[string]string {
	return map[string]string{
		"listenKey": s.listenKey,
	}
}
