// Package spot exposes a slice of the BingX spot and swap market-data
// endpoints on top of the request pipeline.
package spot

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bingx/pkg/async"
	"bingx/pkg/client"
	"bingx/pkg/errors"
	"bingx/pkg/signer"
)

const (
	tickerPricePath = "/openApi/spot/v1/ticker/price"
	depthPath       = "/openApi/spot/v1/market/depth"
	serverTimePath  = "/openApi/swap/v2/server/time"
)

// Trade is the most recent fill reported with a ticker.
type Trade struct {
	Timestamp int64           `json:"timestamp"`
	TradeID   string          `json:"tradeId"`
	Price     decimal.Decimal `json:"price"`
	Amount    string          `json:"amount"`
	Type      int             `json:"type"`
	Volume    decimal.Decimal `json:"volume"`
}

// Ticker is the latest price of one symbol.
type Ticker struct {
	Symbol string  `json:"symbol" validate:"required"`
	Trades []Trade `json:"trades"`
}

// LastPrice returns the price of the newest trade.
func (t Ticker) LastPrice() (decimal.Decimal, bool) {
	if len(t.Trades) == 0 {
		return decimal.Zero, false
	}
	return t.Trades[0].Price, true
}

// Level is one price level of an order book.
type Level struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderBook is a depth snapshot.
type OrderBook struct {
	Bids      []Level
	Asks      []Level
	Timestamp time.Time
}

type rawOrderBook struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
	TS   int64      `json:"ts"`
}

// DepthOptions holds the optional depth parameters.
type DepthOptions struct {
	// Limit defaults to 20 on the exchange, max 1000.
	Limit int
	// RecvWindow is the request validity window.
	RecvWindow time.Duration
}

func (o DepthOptions) params(symbol string) signer.Params {
	return signer.Params{"symbol": symbol}.
		SetIf(o.Limit > 0, "limit", o.Limit).
		SetIf(o.RecvWindow > 0, "recvWindow", o.RecvWindow.Milliseconds())
}

// Market wraps a client with market-data calls.
type Market struct {
	c *client.Client
}

// NewMarket creates a Market on c.
func NewMarket(c *client.Client) *Market {
	return &Market{c: c}
}

func tickerRequest(symbol string, opts []client.CallOption) client.Request {
	req := client.Request{
		Method: http.MethodGet,
		Path:   tickerPricePath,
		Params: signer.Params{"symbol": symbol},
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// TickerPrice returns the latest trade price of symbol, e.g. BTC-USDT. Pass
// client.Cached() to serve repeated calls from the response cache.
func (m *Market) TickerPrice(ctx context.Context, symbol string, opts ...client.CallOption) ([]Ticker, error) {
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidSymbol, "symbol is required")
	}
	return client.Fetch[[]Ticker](ctx, m.c, tickerRequest(symbol, opts))
}

// TickerPriceAsync is the non-blocking TickerPrice.
func (m *Market) TickerPriceAsync(ctx context.Context, symbol string, opts ...client.CallOption) *async.Future[[]Ticker] {
	if symbol == "" {
		return async.Resolved[[]Ticker](nil, errors.Wrap(errors.ErrInvalidSymbol, "symbol is required"))
	}
	return client.FetchAsync[[]Ticker](ctx, m.c, tickerRequest(symbol, opts))
}

// Depth returns the order book of symbol.
func (m *Market) Depth(ctx context.Context, symbol string, opts DepthOptions) (*OrderBook, error) {
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidSymbol, "symbol is required")
	}

	raw, err := client.Fetch[rawOrderBook](ctx, m.c, client.Request{
		Method: http.MethodGet,
		Path:   depthPath,
		Params: opts.params(symbol),
	})
	if err != nil {
		return nil, err
	}

	book := &OrderBook{
		Bids:      make([]Level, 0, len(raw.Bids)),
		Asks:      make([]Level, 0, len(raw.Asks)),
		Timestamp: time.UnixMilli(raw.TS),
	}
	for _, row := range raw.Bids {
		lvl, err := parseLevel(row)
		if err != nil {
			return nil, err
		}
		book.Bids = append(book.Bids, lvl)
	}
	for _, row := range raw.Asks {
		lvl, err := parseLevel(row)
		if err != nil {
			return nil, err
		}
		book.Asks = append(book.Asks, lvl)
	}
	return book, nil
}

type serverTime struct {
	ServerTime int64 `json:"serverTime" validate:"required"`
}

// ServerTime returns the exchange clock.
func (m *Market) ServerTime(ctx context.Context) (time.Time, error) {
	st, err := client.Fetch[serverTime](ctx, m.c, serverTimeRequest())
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(st.ServerTime), nil
}

// ServerTimeAsync is the non-blocking ServerTime.
func (m *Market) ServerTimeAsync(ctx context.Context) *async.Future[time.Time] {
	pending := client.FetchAsync[serverTime](ctx, m.c, serverTimeRequest())
	return async.Go(ctx, func(ctx context.Context) (time.Time, error) {
		st, err := pending.Await(ctx)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(st.ServerTime), nil
	})
}

func serverTimeRequest() client.Request {
	return client.Request{Method: http.MethodGet, Path: serverTimePath}
}

func parseLevel(row []string) (Level, error) {
	if len(row) < 2 {
		return Level{}, errors.Newf("malformed order book level %v", row)
	}
	price, err := decimal.NewFromString(row[0])
	if err != nil {
		return Level{}, errors.Wrapf(err, "order book price %q", row[0])
	}
	qty, err := decimal.NewFromString(row[1])
	if err != nil {
		return Level{}, errors.Wrapf(err, "order book quantity %q", row[1])
	}
	return Level{Price: price, Quantity: qty}, nil
}
