package bitforex

import (
	"fmt"
	"strings"
)

// Pair identifies a trading pair. The exchange renders pairs as
// "coin-<quote>-<base>" in lower case, e.g. NewPair("ETH", "BTC") becomes
// "coin-btc-eth".
type Pair struct {
	Base  string
	Quote string
}

// NewPair creates a trading pair from base and quote currency codes.
func NewPair(base, quote string) Pair {
	return Pair{Base: base, Quote: quote}
}

// String returns the pair in the exchange's symbol format.
func (p Pair) String() string {
	return fmt.Sprintf("coin-%s-%s", strings.ToLower(p.Quote), strings.ToLower(p.Base))
}

// CandlestickInterval enumerates the supported kline intervals.
type CandlestickInterval string

const (
	Interval1Min   CandlestickInterval = "1min"
	Interval5Min   CandlestickInterval = "5min"
	Interval15Min  CandlestickInterval = "15min"
	Interval30Min  CandlestickInterval = "30min"
	Interval1Hour  CandlestickInterval = "1hour"
	Interval2Hour  CandlestickInterval = "2hour"
	Interval4Hour  CandlestickInterval = "4hour"
	Interval12Hour CandlestickInterval = "12hour"
	Interval1Day   CandlestickInterval = "1day"
	Interval1Week  CandlestickInterval = "1week"
	Interval1Month CandlestickInterval = "1month"
)

// OrderSide is the direction of an order in the exchange's encoding.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "1"
	OrderSideSell OrderSide = "2"
)

// OrderState filters order queries.
type OrderState string

const (
	OrderStatePending  OrderState = "0"
	OrderStateComplete OrderState = "1"
)

// OrderRequest describes one order within a multi-order placement.
type OrderRequest struct {
	Price  string    `json:"price"`
	Amount string    `json:"amount"`
	Side   OrderSide `json:"tradeType"`
}
