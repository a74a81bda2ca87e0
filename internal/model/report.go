package model

import "time"

// Report is the sole output of a scan pass.
type Report struct {
	ID         string       `json:"id"`
	Timeframe  string       `json:"timeframe"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Universe   int          `json:"universe"`
	Long       []ScanResult `json:"long"`
	Short      []ScanResult `json:"short"`
	Neutral    []ScanResult `json:"neutral"`
	Skipped    []Skipped    `json:"skipped"`
	Partial    bool         `json:"partial"`
}

// ReportCounts summarizes group sizes.
type ReportCounts struct {
	Long    int `json:"long"`
	Short   int `json:"short"`
	Neutral int `json:"neutral"`
	Skipped int `json:"skipped"`
}

// Add files a result under its signal group.
func (r *Report) Add(res ScanResult) {
	switch res.Signal {
	case SignalLong:
		r.Long = append(r.Long, res)
	case SignalShort:
		r.Short = append(r.Short, res)
	default:
		r.Neutral = append(r.Neutral, res)
	}
}

// Skip records an instrument without a classified result.
func (r *Report) Skip(s Skipped) {
	r.Skipped = append(r.Skipped, s)
}

// Results returns every classified result, LONG first, then SHORT, then NEUTRAL.
func (r *Report) Results() []ScanResult {
	out := make([]ScanResult, 0, len(r.Long)+len(r.Short)+len(r.Neutral))
	out = append(out, r.Long...)
	out = append(out, r.Short...)
	out = append(out, r.Neutral...)
	return out
}

func (r *Report) Counts() ReportCounts {
	return ReportCounts{
		Long:    len(r.Long),
		Short:   len(r.Short),
		Neutral: len(r.Neutral),
		Skipped: len(r.Skipped),
	}
}

// Find returns the classified result for symbol, if any.
func (r *Report) Find(symbol string) (ScanResult, bool) {
	for _, res := range r.Results() {
		if res.Symbol == symbol {
			return res, true
		}
	}
	return ScanResult{}, false
}
