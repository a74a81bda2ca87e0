package model

// IndicatorSnapshot holds indicator values as of the last candle of a series.
// A nil field means the series was too short to compute it.
type IndicatorSnapshot struct {
	RSI        *float64 `json:"rsi,omitempty"`
	EMAShort   *float64 `json:"ema_short,omitempty"`
	EMALong    *float64 `json:"ema_long,omitempty"`
	MACD       *float64 `json:"macd,omitempty"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
	SAR        *float64 `json:"sar,omitempty"`
}

// Complete reports whether every indicator is present.
func (s IndicatorSnapshot) Complete() bool {
	return s.RSI != nil && s.EMAShort != nil && s.EMALong != nil &&
		s.MACD != nil && s.MACDSignal != nil && s.SAR != nil
}

// Float returns a pointer to v, for building snapshots.
func Float(v float64) *float64 { return &v }
