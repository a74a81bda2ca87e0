package model

// Signal is the discrete trading bias for one instrument.
type Signal string

const (
	SignalLong    Signal = "LONG"
	SignalShort   Signal = "SHORT"
	SignalNeutral Signal = "NEUTRAL"
)

// SkipReason explains why an instrument produced no ScanResult.
type SkipReason string

const (
	SkipFetchFailed      SkipReason = "fetch_failed"
	SkipInsufficientData SkipReason = "insufficient_data"
	SkipIneligible       SkipReason = "ineligible"
	SkipCanceled         SkipReason = "canceled"
)

// ScanResult is the analysis outcome for one instrument in one pass.
type ScanResult struct {
	Symbol    string            `json:"symbol"`
	Price     float64           `json:"price"`
	Eligible  bool              `json:"eligible"`
	PriorHigh float64           `json:"prior_high"`
	PriorLow  float64           `json:"prior_low"`
	Snapshot  IndicatorSnapshot `json:"indicators"`
	Signal    Signal            `json:"signal"`
}

// Skipped records an instrument that was left out of the classified groups.
type Skipped struct {
	Symbol string     `json:"symbol"`
	Reason SkipReason `json:"reason"`
	Error  string     `json:"error,omitempty"`
}
