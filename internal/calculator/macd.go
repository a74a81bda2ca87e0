package calculator

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line as
// of the last close. The signal line is an EMA over the MACD line starting at
// the first close where the slow EMA exists.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine float64, err error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return 0, 0, ErrInvalidPeriod
	}
	if len(closes) < slow+signal {
		return 0, 0, insufficient("MACD", len(closes), slow+signal)
	}

	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return 0, 0, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return 0, 0, err
	}

	// fastEMA[i] is as of closes[fast-1+i]; align both on closes[slow-1:].
	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine, err = EMA(line, signal)
	if err != nil {
		return 0, 0, err
	}
	return line[len(line)-1], signalLine, nil
}
