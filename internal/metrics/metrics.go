package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for scan passes.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec // labels: outcome=ok|partial|error
	InstrumentsTotal *prometheus.CounterVec // labels: outcome=long|short|neutral|<skip reason>
	ScanDuration     prometheus.Histogram
	FetchErrors      *prometheus.CounterVec // labels: interval
	NotifyFailures   prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Completed scan passes by outcome",
		}, []string{"outcome"}),
		InstrumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_instruments_total",
			Help: "Instruments processed by outcome",
		}, []string{"outcome"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Wall time of a scan pass",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_fetch_errors_total",
			Help: "Candle fetch failures by interval",
		}, []string{"interval"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_notify_failures_total",
			Help: "Report deliveries that failed after retries",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ScansTotal,
			m.InstrumentsTotal,
			m.ScanDuration,
			m.FetchErrors,
			m.NotifyFailures,
		)
	}
	return m
}

// ObserveScan records one finished pass. outcome is "ok", "partial" or "error".
func (m *Metrics) ObserveScan(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(seconds)
}

func (m *Metrics) IncInstrument(outcome string) {
	if m == nil {
		return
	}
	m.InstrumentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncFetchError(interval string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(interval).Inc()
}

func (m *Metrics) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
