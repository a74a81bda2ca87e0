package collector

import (
	"context"
	"sync/atomic"
	"time"

	"SignalScanner/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Symbols []string
	Price   float64
	// Data maps symbol -> interval -> candles.
	Data map[string]map[string][]model.Candle
	// Errors maps symbol -> error returned by FetchSeries.
	Errors  map[string]error
	ListErr error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) ListInstruments(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]string(nil), m.Symbols...), nil
}

func (m *MockFetcher) FetchSeries(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	if err, ok := m.Errors[symbol]; ok {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	candles, ok := m.Data[symbol][interval]
	if !ok {
		candles = generateMockBars(m.Price, limit, intervalDuration(interval))
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	series, err := model.NewSeries(symbol, interval, candles)
	if err != nil {
		return model.Series{}, fetchErr(symbol, interval, err)
	}
	return series, nil
}

// Calls returns the number of FetchSeries invocations.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func generateMockBars(basePrice float64, count int, step time.Duration) []model.Candle {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(step)
	bars := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Candle{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
