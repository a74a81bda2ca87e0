package collector

import (
	"context"
	"errors"
	"fmt"

	"SignalScanner/internal/model"
)

// ErrUpstreamSchema is returned when the instrument listing cannot be parsed
// into the expected shape. It is fatal to a scan.
var ErrUpstreamSchema = errors.New("upstream schema mismatch")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	ListInstruments(ctx context.Context) ([]string, error)
	FetchSeries(ctx context.Context, symbol, interval string, limit int) (model.Series, error)
	Name() string
}

// FetchError reports that candles for one instrument were unavailable or malformed.
type FetchError struct {
	Symbol   string
	Interval string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Symbol, e.Interval, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(symbol, interval string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Symbol: symbol, Interval: interval, Err: err}
}
