package calculator

import "SignalScanner/internal/model"

// PriorDayRange returns the high and low of the last completed day, which is
// the second-to-last candle of a chronologically ordered daily series.
func PriorDayRange(daily []model.Candle) (high, low float64, err error) {
	if len(daily) < 2 {
		return 0, 0, insufficient("prior day range", len(daily), 2)
	}
	prior := daily[len(daily)-2]
	return prior.High, prior.Low, nil
}
