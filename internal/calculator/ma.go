package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriod is returned for non-positive periods.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInsufficientHistory is returned when the series is shorter than the indicator window.
	ErrInsufficientHistory = errors.New("insufficient history")
)

func insufficient(name string, have, need int) error {
	return fmt.Errorf("%s: %w: have %d values, need %d", name, ErrInsufficientHistory, have, need)
}

// SMA computes the simple moving average of the last `period` values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(values) < period {
		return 0, insufficient("SMA", len(values), period)
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// EMASeries folds values into an exponential moving average seeded with the
// simple average of the first `period` values. Element i of the result is the
// EMA as of values[period-1+i].
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period {
		return nil, insufficient("EMA", len(values), period)
	}
	ema, err := SMA(values[:period], period)
	if err != nil {
		return nil, err
	}
	k := 2.0 / float64(period+1)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)
	for i := period; i < len(values); i++ {
		ema = values[i]*k + ema*(1-k)
		out = append(out, ema)
	}
	return out, nil
}

// EMA returns the exponential moving average as of the last value.
func EMA(values []float64, period int) (float64, error) {
	series, err := EMASeries(values, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}
