package calculator

import (
	"errors"
	"math"

	"SignalScanner/internal/model"
)

// ParabolicSAR computes Wilder's stop-and-reverse value for the last candle.
// The initial trend is rising when the second close is not below the first.
func ParabolicSAR(candles []model.Candle, step, maxAF float64) (float64, error) {
	if step <= 0 || maxAF < step {
		return 0, errors.New("SAR: step must be positive and not exceed max")
	}
	if len(candles) < 2 {
		return 0, insufficient("SAR", len(candles), 2)
	}

	rising := candles[1].Close >= candles[0].Close
	af := step
	var sar, ep float64
	if rising {
		sar, ep = candles[0].Low, candles[0].High
	} else {
		sar, ep = candles[0].High, candles[0].Low
	}

	for i := 1; i < len(candles); i++ {
		c := candles[i]
		sar += af * (ep - sar)

		if rising {
			sar = math.Min(sar, candles[i-1].Low)
			if i >= 2 {
				sar = math.Min(sar, candles[i-2].Low)
			}
			if c.Low < sar {
				rising = false
				sar, ep, af = ep, c.Low, step
			} else if c.High > ep {
				ep = c.High
				af = math.Min(af+step, maxAF)
			}
			continue
		}

		sar = math.Max(sar, candles[i-1].High)
		if i >= 2 {
			sar = math.Max(sar, candles[i-2].High)
		}
		if c.High > sar {
			rising = true
			sar, ep, af = ep, c.High, step
		} else if c.Low < ep {
			ep = c.Low
			af = math.Min(af+step, maxAF)
		}
	}
	return sar, nil
}
