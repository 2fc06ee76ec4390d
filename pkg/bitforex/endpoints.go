package bitforex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veiloq/bitforex-connector/pkg/rest"
)

// Thin REST endpoint methods. Each one only shapes parameters for its
// exchange operation; URL construction, signing, retries and rate limiting
// live in pkg/rest. Responses are returned raw for the caller to decode.

// GetExchangeInfo returns the trading pairs listed on the exchange.
func (c *Client) GetExchangeInfo(ctx context.Context) (*rest.Response, error) {
	return c.rest.Get(ctx, "market/symbols", nil, nil, false)
}

// GetOrderBook returns an order book snapshot for the pair.
func (c *Client) GetOrderBook(ctx context.Context, pair Pair, depth string) (*rest.Response, error) {
	return c.rest.Get(ctx, "market/depth", map[string]string{
		"symbol": pair.String(),
		"size":   depth,
	}, nil, false)
}

// GetTicker returns the current ticker for the pair.
func (c *Client) GetTicker(ctx context.Context, pair Pair) (*rest.Response, error) {
	return c.rest.Get(ctx, "market/ticker", map[string]string{
		"symbol": pair.String(),
	}, nil, false)
}

// GetTrades returns the most recent trades for the pair.
func (c *Client) GetTrades(ctx context.Context, pair Pair, size string) (*rest.Response, error) {
	return c.rest.Get(ctx, "market/trades", map[string]string{
		"symbol": pair.String(),
		"size":   size,
	}, nil, false)
}

// GetCandlesticks returns kline data for the pair at the given interval.
func (c *Client) GetCandlesticks(ctx context.Context, pair Pair, interval CandlestickInterval, size string) (*rest.Response, error) {
	return c.rest.Get(ctx, "market/kline", map[string]string{
		"symbol": pair.String(),
		"ktype":  string(interval),
		"size":   size,
	}, nil, false)
}

// GetSingleFund returns the account balance for one currency.
func (c *Client) GetSingleFund(ctx context.Context, currency string) (*rest.Response, error) {
	return c.rest.Post(ctx, "fund/mainAccount", nil, map[string]string{
		"currency": strings.ToLower(currency),
	}, nil, true)
}

// GetFunds returns all account balances.
func (c *Client) GetFunds(ctx context.Context) (*rest.Response, error) {
	return c.rest.Post(ctx, "fund/allAccount", nil, nil, nil, true)
}

// CreateOrder places a single order.
func (c *Client) CreateOrder(ctx context.Context, pair Pair, side OrderSide, quantity, price string) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/placeOrder", nil, map[string]string{
		"symbol":    pair.String(),
		"tradeType": string(side),
		"amount":    quantity,
		"price":     price,
	}, nil, true)
}

// CreateMultiOrder places several orders for one pair in a single call.
func (c *Client) CreateMultiOrder(ctx context.Context, pair Pair, orders []OrderRequest) (*rest.Response, error) {
	ordersData, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("error marshaling orders: %w", err)
	}
	return c.rest.Post(ctx, "trade/placeMultiOrder", nil, map[string]string{
		"symbol":     pair.String(),
		"ordersData": string(ordersData),
	}, nil, true)
}

// CancelOrder cancels one order.
func (c *Client) CancelOrder(ctx context.Context, pair Pair, orderID string) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/cancelOrder", nil, map[string]string{
		"symbol":  pair.String(),
		"orderId": orderID,
	}, nil, true)
}

// CancelMultiOrder cancels several orders for one pair.
func (c *Client) CancelMultiOrder(ctx context.Context, pair Pair, orderIDs []string) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/cancelMultiOrder", nil, map[string]string{
		"symbol":   pair.String(),
		"orderIds": strings.Join(orderIDs, ","),
	}, nil, true)
}

// CancelAllOrders cancels every open order for the pair.
func (c *Client) CancelAllOrders(ctx context.Context, pair Pair) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/cancelAllOrder", nil, map[string]string{
		"symbol": pair.String(),
	}, nil, true)
}

// GetOrder returns the state of one order.
func (c *Client) GetOrder(ctx context.Context, pair Pair, orderID string) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/orderInfo", nil, map[string]string{
		"symbol":  pair.String(),
		"orderId": orderID,
	}, nil, true)
}

// GetOrders returns the state of several orders.
func (c *Client) GetOrders(ctx context.Context, pair Pair, orderIDs []string) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/multiOrderInfo", nil, map[string]string{
		"symbol":   pair.String(),
		"orderIds": strings.Join(orderIDs, ","),
	}, nil, true)
}

// FindOrders returns the pair's orders in the given state.
func (c *Client) FindOrders(ctx context.Context, pair Pair, state OrderState) (*rest.Response, error) {
	return c.rest.Post(ctx, "trade/orderInfos", nil, map[string]string{
		"symbol": pair.String(),
		"state":  string(state),
	}, nil, true)
}

// GetListenKey requests a listen key for the account event stream. The
// endpoint authenticates by API key header rather than signature.
func (c *Client) GetListenKey(ctx context.Context) (*rest.Response, error) {
	return c.rest.Post(ctx, "userDataStream", nil, nil, c.rest.APIKeyHeader(), false)
}

// FetchListenKey retrieves and decodes the listen key. It satisfies
// ListenKeyFunc for NewAccountSubscription.
func (c *Client) FetchListenKey(ctx context.Context) (string, error) {
	if c.options.APIKey == "" {
		return "", ErrMissingCredentials
	}

	resp, err := c.GetListenKey(ctx)
	if err != nil {
		return "", err
	}

	var body struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("error decoding listen key response: %w", err)
	}
	return body.Data, nil
}
