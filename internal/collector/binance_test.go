package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalScanner/internal/model"
)

const exchangeInfoJSON = `{
  "timezone": "UTC",
  "symbols": [
    {"symbol": "BTCUSDT", "status": "TRADING", "contractType": "PERPETUAL", "quoteAsset": "USDT"},
    {"symbol": "ETHUSDT", "status": "TRADING", "contractType": "PERPETUAL", "quoteAsset": "USDT"},
    {"symbol": "BTCUSDT_240628", "status": "TRADING", "contractType": "CURRENT_QUARTER", "quoteAsset": "USDT"},
    {"symbol": "XRPBUSD", "status": "TRADING", "contractType": "PERPETUAL", "quoteAsset": "BUSD"},
    {"symbol": "LUNAUSDT", "status": "SETTLING", "contractType": "PERPETUAL", "quoteAsset": "USDT"}
  ]
}`

const klinesJSON = `[
  [1714521600000, "101.5", "103.0", "100.0", "102.0", "1200.5", 1714525199999, "0", 10, "0", "0", "0"],
  [1714518000000, "100.0", "102.0", "99.5", "101.5", "900", 1714521599999, "0", 8, "0", "0", "0"]
]`

func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *BinanceFetcher {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	f, err := NewBinanceFetcher(BinanceOptions{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return f
}

func TestNewBinanceFetcher_Proxy(t *testing.T) {
	f, err := NewBinanceFetcher(BinanceOptions{Proxy: "http://127.0.0.1:7890"})
	require.NoError(t, err)
	transport, ok := f.Client.Transport.(*http.Transport)
	require.True(t, ok)
	req, _ := http.NewRequest(http.MethodGet, "https://fapi.binance.com/fapi/v1/ping", nil)
	proxy, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", proxy.Host)

	f, err = NewBinanceFetcher(BinanceOptions{Proxy: "://no-scheme"})
	assert.Nil(t, f)
	assert.ErrorContains(t, err, "parse proxy url")
}

func TestBinanceFetcher_ListInstruments(t *testing.T) {
	f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/fapi/v1/exchangeInfo": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(exchangeInfoJSON))
		},
	})

	symbols, err := f.ListInstruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func TestBinanceFetcher_ListInstruments_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>maintenance</html>`},
		{"missing symbols", `{"timezone":"UTC"}`},
		{"symbols not array", `{"symbols":{"BTCUSDT":{}}}`},
		{"entry without symbol", `{"symbols":[{"status":"TRADING"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
				"/fapi/v1/exchangeInfo": func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(tt.body))
				},
			})
			_, err := f.ListInstruments(context.Background())
			assert.ErrorIs(t, err, ErrUpstreamSchema)
		})
	}
}

func TestBinanceFetcher_ListInstruments_HTTPError(t *testing.T) {
	f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/fapi/v1/exchangeInfo": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "teapot", http.StatusTeapot)
		},
	})
	_, err := f.ListInstruments(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstreamSchema)
	assert.Contains(t, err.Error(), "status 418")
}

func TestBinanceFetcher_FetchSeries(t *testing.T) {
	var gotQuery string
	f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/fapi/v1/klines": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(klinesJSON))
		},
	})

	series, err := f.FetchSeries(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	assert.Equal(t, "interval=1h&limit=2&symbol=BTCUSDT", gotQuery)
	assert.Equal(t, "BTCUSDT", series.Symbol)
	require.Equal(t, 2, series.Len())

	// Sorted oldest first regardless of upstream order.
	assert.True(t, series.Candles[0].Time.Before(series.Candles[1].Time))
	last, ok := series.Last()
	require.True(t, ok)
	assert.Equal(t, 102.0, last.Close)
	assert.Equal(t, 103.0, last.High)
	assert.Equal(t, 1200.5, last.Volume)
	assert.Equal(t, time.UnixMilli(1714521600000).UTC(), last.Time)
}

func TestBinanceFetcher_FetchSeries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`},
		{"not an array", http.StatusOK, `{"code":0}`},
		{"short row", http.StatusOK, `[[1714521600000, "1", "2"]]`},
		{"bad price", http.StatusOK, `[[1714521600000, "abc", "2", "1", "1.5", "10"]]`},
		{"ohlc violation", http.StatusOK, `[[1714521600000, "1", "2", "1.8", "1.5", "10"]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
				"/fapi/v1/klines": func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				},
			})
			_, err := f.FetchSeries(context.Background(), "BTCUSDT", "1h", 10)
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, "BTCUSDT", fe.Symbol)
			assert.Equal(t, "1h", fe.Interval)
		})
	}
}

func TestBinanceFetcher_FetchSeries_MalformedSeries(t *testing.T) {
	f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/fapi/v1/klines": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[[1714521600000, "1", "2", "1.8", "1.5", "10"]]`))
		},
	})
	_, err := f.FetchSeries(context.Background(), "BTCUSDT", "1h", 10)
	assert.ErrorIs(t, err, model.ErrMalformedSeries)
}

func TestBinanceFetcher_CanceledContext(t *testing.T) {
	f := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/fapi/v1/klines": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(klinesJSON))
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchSeries(ctx, "BTCUSDT", "1h", 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockFetcher(t *testing.T) {
	boom := errors.New("boom")
	m := &MockFetcher{
		Symbols: []string{"AAA", "BBB"},
		Price:   50,
		Errors:  map[string]error{"BBB": boom},
	}

	syms, err := m.ListInstruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, syms)

	s, err := m.FetchSeries(context.Background(), "AAA", "1h", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Len())

	_, err = m.FetchSeries(context.Background(), "BBB", "1h", 30)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), m.Calls())
}
