package spot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingx/pkg/apierr"
	"bingx/pkg/cache"
	"bingx/pkg/client"
	"bingx/pkg/errors"
	"bingx/pkg/logger"
)

var routes = map[string]string{
	tickerPricePath: `{"code":0,"timestamp":1700000000123,"data":[{"symbol":"BTC-USDT","trades":[{"timestamp":1700000000000,"tradeId":"42","price":"65000.1","amount":"","type":1,"volume":"0.5"}]}]}`,
	depthPath:       `{"code":0,"timestamp":1700000000123,"data":{"bids":[["64999.9","1.5"],["64999.8","0.2"]],"asks":[["65000.1","0.7"]],"ts":1700000000100}}`,
	serverTimePath:  `{"code":0,"msg":"","data":{"serverTime":1700000000555}}`,
}

func newServer(t *testing.T, calls *atomic.Int32, lastQuery *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if lastQuery != nil {
			lastQuery.Store(r.URL.Query())
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			_, _ = w.Write([]byte(`{"code":80014,"msg":"unknown path"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, cfg client.Config) *client.Client {
	t.Helper()
	cfg.APIKey, cfg.Secret = "K", "S"
	c, err := client.New(cfg, client.WithLogger(logger.Nop()))
	require.NoError(t, err)
	require.NoError(t, c.Open())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTickerPriceCached(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL, Cache: cache.NewMemory()}))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tickers, err := m.TickerPrice(ctx, "BTC-USDT", client.Cached())
		require.NoError(t, err)
		require.Len(t, tickers, 1)
		assert.Equal(t, "BTC-USDT", tickers[0].Symbol)

		price, ok := tickers[0].LastPrice()
		require.True(t, ok)
		assert.True(t, decimal.RequireFromString("65000.1").Equal(price))
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestTickerPriceAsync(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	m := NewMarket(newClient(t, client.Config{
		BaseURL:    srv.URL,
		Mode:       client.ModeAsync,
		AsyncCache: cache.NewAsyncMemory(),
	}))
	ctx := context.Background()

	first, err := m.TickerPriceAsync(ctx, "BTC-USDT", client.Cached()).Await(ctx)
	require.NoError(t, err)
	second, err := m.TickerPriceAsync(ctx, "BTC-USDT", client.Cached()).Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTickerPriceRequiresSymbol(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL}))

	_, err := m.TickerPrice(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrInvalidSymbol)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDepth(t *testing.T) {
	var calls atomic.Int32
	var query atomic.Value
	srv := newServer(t, &calls, &query)
	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL}))

	book, err := m.Depth(context.Background(), "BTC-USDT", DepthOptions{Limit: 5, RecvWindow: 5 * time.Second})
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	assert.True(t, decimal.RequireFromString("64999.9").Equal(book.Bids[0].Price))
	assert.True(t, decimal.RequireFromString("1.5").Equal(book.Bids[0].Quantity))
	assert.Equal(t, time.UnixMilli(1700000000100), book.Timestamp)

	q := query.Load().(url.Values)
	assert.Equal(t, []string{"5"}, q["limit"])
	assert.Equal(t, []string{"5000"}, q["recvWindow"])
	assert.Equal(t, []string{"BTC-USDT"}, q["symbol"])
}

func TestDepthOptionsOmitUnset(t *testing.T) {
	p := DepthOptions{}.params("ETH-USDT")
	assert.Len(t, p, 1)
	assert.Equal(t, "ETH-USDT", p["symbol"])
}

func TestParseLevel(t *testing.T) {
	_, err := parseLevel([]string{"1"})
	assert.Error(t, err)

	_, err = parseLevel([]string{"x", "1"})
	assert.Error(t, err)
}

func TestServerTime(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL}))

	got, err := m.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000555), got)
}

func TestServerTimeAsync(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL, Mode: client.ModeAsync}))
	ctx := context.Background()

	got, err := m.ServerTimeAsync(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000555), got.UnixMilli())
}

func TestExchangeErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":100410,"msg":"rate limited"}`))
	}))
	defer srv.Close()

	m := NewMarket(newClient(t, client.Config{BaseURL: srv.URL}))
	_, err := m.TickerPrice(context.Background(), "BTC-USDT")
	assert.True(t, apierr.IsKind(err, apierr.KindRateLimit))
}
