package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMalformedSeries is returned when upstream candles violate the OHLC or ordering invariants.
var ErrMalformedSeries = errors.New("malformed series")

// Candle represents a single candlestick bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether low <= open, close <= high.
func (c Candle) Valid() bool {
	return c.Low <= c.Open && c.Low <= c.Close && c.Open <= c.High && c.Close <= c.High
}

// Series holds the ordered candles of one instrument at one granularity.
type Series struct {
	Symbol   string
	Interval string
	Candles  []Candle
}

// NewSeries sorts candles chronologically and validates them.
// The returned series owns a private copy of the candles.
func NewSeries(symbol, interval string, candles []Candle) (Series, error) {
	cs := make([]Candle, len(candles))
	copy(cs, candles)
	sort.Slice(cs, func(i, j int) bool { return cs[i].Time.Before(cs[j].Time) })

	for i, c := range cs {
		if !c.Valid() {
			return Series{}, fmt.Errorf("%w: %s %s candle at %s breaks OHLC bounds",
				ErrMalformedSeries, symbol, interval, c.Time.UTC().Format(time.RFC3339))
		}
		if i > 0 && !cs[i-1].Time.Before(c.Time) {
			return Series{}, fmt.Errorf("%w: %s %s duplicate timestamp %s",
				ErrMalformedSeries, symbol, interval, c.Time.UTC().Format(time.RFC3339))
		}
	}
	return Series{Symbol: symbol, Interval: interval, Candles: cs}, nil
}

func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle and false when the series is empty.
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Closes extracts close prices in chronological order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}
