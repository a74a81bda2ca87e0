package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"SignalScanner/internal/model"
)

const defaultBinanceBaseURL = "https://fapi.binance.com"

// BinanceOptions configures BinanceFetcher.
type BinanceOptions struct {
	BaseURL           string
	QuoteAsset        string
	Proxy             string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// BinanceFetcher implements Fetcher against the Binance USDT-margined futures REST API.
type BinanceFetcher struct {
	BaseURL    string
	QuoteAsset string
	Client     *http.Client
	limiter    *rate.Limiter
}

// NewBinanceFetcher creates a fetcher with optional proxy support and client-side request pacing.
// An unparsable proxy URL is an error.
func NewBinanceFetcher(opts BinanceOptions) (*BinanceFetcher, error) {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBinanceBaseURL
	}
	if opts.QuoteAsset == "" {
		opts.QuoteAsset = "USDT"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &BinanceFetcher{
		BaseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		QuoteAsset: strings.ToUpper(opts.QuoteAsset),
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, opts.Burst),
	}, nil
}

func (f *BinanceFetcher) Name() string { return "binance" }

// ListInstruments returns the trading perpetual contracts quoted in QuoteAsset.
func (f *BinanceFetcher) ListInstruments(ctx context.Context) ([]string, error) {
	body, err := f.get(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("list instruments: %w: invalid JSON", ErrUpstreamSchema)
	}
	symbols := gjson.GetBytes(body, "symbols")
	if !symbols.IsArray() {
		return nil, fmt.Errorf("list instruments: %w: missing symbols array", ErrUpstreamSchema)
	}

	var out []string
	for i, s := range symbols.Array() {
		name := s.Get("symbol")
		if name.Type != gjson.String || name.String() == "" {
			return nil, fmt.Errorf("list instruments: %w: symbols[%d] has no symbol", ErrUpstreamSchema, i)
		}
		if s.Get("status").String() != "TRADING" {
			continue
		}
		if ct := s.Get("contractType"); ct.Exists() && ct.String() != "PERPETUAL" {
			continue
		}
		if !strings.EqualFold(s.Get("quoteAsset").String(), f.QuoteAsset) {
			continue
		}
		out = append(out, name.String())
	}
	return out, nil
}

// FetchSeries returns up to limit klines for symbol at interval, oldest first.
func (f *BinanceFetcher) FetchSeries(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	body, err := f.get(ctx, "/fapi/v1/klines", q)
	if err != nil {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	candles, err := parseKlines(body)
	if err != nil {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	series, err := model.NewSeries(symbol, interval, candles)
	if err != nil {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	return series, nil
}

// parseKlines decodes [[openTime, "open", "high", "low", "close", "volume", ...], ...].
func parseKlines(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode klines: invalid JSON")
	}
	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("decode klines: expected array, got %s", rows.Type)
	}

	candles := make([]model.Candle, 0, len(rows.Array()))
	for i, row := range rows.Array() {
		fields := row.Array()
		if !row.IsArray() || len(fields) < 6 {
			return nil, fmt.Errorf("decode klines: row %d has %d fields", i, len(fields))
		}
		var vals [5]float64
		for j := 0; j < 5; j++ {
			d, err := decimal.NewFromString(fields[j+1].String())
			if err != nil {
				return nil, fmt.Errorf("decode klines: row %d field %d: %w", i, j+1, err)
			}
			vals[j] = d.InexactFloat64()
		}
		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(fields[0].Int()).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return candles, nil
}

func (f *BinanceFetcher) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := f.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}
