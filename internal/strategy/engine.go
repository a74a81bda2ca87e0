package strategy

import "SignalScanner/internal/model"

// Condition is one clause of the decision rule and which side it supports.
type Condition struct {
	Name  string `json:"name"`
	Long  bool   `json:"long"`
	Short bool   `json:"short"`
}

// Decision is the signal together with the clause-by-clause breakdown.
type Decision struct {
	Signal     model.Signal `json:"signal"`
	Conditions []Condition  `json:"conditions,omitempty"`
}

// Decide classifies a snapshot against the latest close.
//
// LONG needs RSI < 50, EMA short > EMA long, MACD > signal and close > SAR.
// SHORT needs the mirrored strict inequalities. Everything else, including a
// snapshot with absent indicators, is NEUTRAL.
func Decide(snap model.IndicatorSnapshot, latestClose float64) model.Signal {
	return Evaluate(snap, latestClose).Signal
}

// Evaluate is Decide with the per-condition breakdown.
func Evaluate(snap model.IndicatorSnapshot, latestClose float64) Decision {
	if !snap.Complete() {
		return Decision{Signal: model.SignalNeutral}
	}

	conds := []Condition{
		{Name: "RSI", Long: *snap.RSI < 50, Short: *snap.RSI > 50},
		{Name: "EMA", Long: *snap.EMAShort > *snap.EMALong, Short: *snap.EMAShort < *snap.EMALong},
		{Name: "MACD", Long: *snap.MACD > *snap.MACDSignal, Short: *snap.MACD < *snap.MACDSignal},
		{Name: "SAR", Long: latestClose > *snap.SAR, Short: latestClose < *snap.SAR},
	}

	long, short := true, true
	for _, c := range conds {
		long = long && c.Long
		short = short && c.Short
	}

	sig := model.SignalNeutral
	switch {
	case long:
		sig = model.SignalLong
	case short:
		sig = model.SignalShort
	}
	return Decision{Signal: sig, Conditions: conds}
}
