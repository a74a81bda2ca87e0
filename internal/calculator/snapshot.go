package calculator

import (
	"SignalScanner/internal/model"
)

// Params configures the indicator windows used by Compute.
type Params struct {
	RSIPeriod  int     `yaml:"rsi_period"`
	EMAShort   int     `yaml:"ema_short"`
	EMALong    int     `yaml:"ema_long"`
	MACDFast   int     `yaml:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal"`
	SARStep    float64 `yaml:"sar_step"`
	SARMax     float64 `yaml:"sar_max"`
}

// DefaultParams returns RSI(7), EMA(5)/EMA(15), MACD(12,26,9) and SAR(0.02,0.2).
func DefaultParams() Params {
	return Params{
		RSIPeriod:  7,
		EMAShort:   5,
		EMALong:    15,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		SARStep:    0.02,
		SARMax:     0.2,
	}
}

// WithDefaults fills zero fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.EMAShort <= 0 {
		p.EMAShort = d.EMAShort
	}
	if p.EMALong <= 0 {
		p.EMALong = d.EMALong
	}
	if p.MACDFast <= 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = d.MACDSignal
	}
	if p.SARStep <= 0 {
		p.SARStep = d.SARStep
	}
	if p.SARMax <= 0 {
		p.SARMax = d.SARMax
	}
	return p
}

// Compute builds the indicator snapshot for the last candle of series.
// Indicators lacking history are left nil; Compute never fails.
func Compute(series model.Series, p Params) model.IndicatorSnapshot {
	closes := series.Closes()
	var snap model.IndicatorSnapshot

	if v, err := RSI(closes, p.RSIPeriod); err == nil {
		snap.RSI = model.Float(v)
	}
	if v, err := EMA(closes, p.EMAShort); err == nil {
		snap.EMAShort = model.Float(v)
	}
	if v, err := EMA(closes, p.EMALong); err == nil {
		snap.EMALong = model.Float(v)
	}
	if m, s, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal); err == nil {
		snap.MACD = model.Float(m)
		snap.MACDSignal = model.Float(s)
	}
	if v, err := ParabolicSAR(series.Candles, p.SARStep, p.SARMax); err == nil {
		snap.SAR = model.Float(v)
	}
	return snap
}
