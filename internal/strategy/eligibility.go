package strategy

import (
	"errors"

	"SignalScanner/internal/calculator"
	"SignalScanner/internal/model"
)

// ErrInsufficientDaily is returned when fewer than two daily candles are available.
var ErrInsufficientDaily = errors.New("need at least 2 daily candles")

// Eligible reports whether currentPrice has broken out of the previous
// completed day's range. daily must be in chronological order with the
// current, still-forming day last.
func Eligible(currentPrice float64, daily []model.Candle) (bool, error) {
	high, low, err := calculator.PriorDayRange(daily)
	if err != nil {
		return false, ErrInsufficientDaily
	}
	return currentPrice > high || currentPrice < low, nil
}
