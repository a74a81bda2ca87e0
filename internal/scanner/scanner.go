// Package scanner runs one analysis pass over an instrument universe.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"SignalScanner/internal/calculator"
	"SignalScanner/internal/collector"
	"SignalScanner/internal/metrics"
	"SignalScanner/internal/model"
	"SignalScanner/internal/strategy"
)

const dailyInterval = "1d"

// Options controls the candle windows and fan-out of a pass.
type Options struct {
	Timeframe   string
	Limit       int
	DailyLimit  int
	Concurrency int
	Params      calculator.Params
	// Symbols, when set, replaces the exchange listing.
	Symbols []string
}

func (o Options) withDefaults() Options {
	if o.Timeframe == "" {
		o.Timeframe = "1h"
	}
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.DailyLimit < 2 {
		o.DailyLimit = 2
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	o.Params = o.Params.WithDefaults()
	return o
}

// Scanner classifies every instrument of the universe into LONG/SHORT/NEUTRAL.
type Scanner struct {
	fetcher collector.Fetcher
	opts    Options
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(fetcher collector.Fetcher, opts Options, log zerolog.Logger, m *metrics.Metrics) *Scanner {
	return &Scanner{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Options returns the effective options after defaults.
func (s *Scanner) Options() Options { return s.opts }

// Run lists the universe and scans it. Listing failures are returned; per-instrument
// failures are recorded in the report.
func (s *Scanner) Run(ctx context.Context) (*model.Report, error) {
	symbols := s.opts.Symbols
	if len(symbols) == 0 {
		start := s.now()
		list, err := s.fetcher.ListInstruments(ctx)
		if err != nil {
			s.metrics.ObserveScan("error", s.now().Sub(start).Seconds())
			s.log.Error().Err(err).Str("source", s.fetcher.Name()).Msg("list instruments failed")
			return nil, fmt.Errorf("list instruments: %w", err)
		}
		symbols = list
	}
	return s.Scan(ctx, symbols), nil
}

// outcome is what one worker produced; exactly one field is set.
type outcome struct {
	result *model.ScanResult
	skip   *model.Skipped
}

// Scan analyses symbols with bounded concurrency. Cancellation yields a partial
// report where unfinished instruments are marked canceled.
func (s *Scanner) Scan(ctx context.Context, symbols []string) *model.Report {
	report := &model.Report{
		ID:        uuid.NewString(),
		Timeframe: s.opts.Timeframe,
		StartedAt: s.now().UTC(),
		Universe:  len(symbols),
		Long:      []model.ScanResult{},
		Short:     []model.ScanResult{},
		Neutral:   []model.ScanResult{},
		Skipped:   []model.Skipped{},
	}
	log := s.log.With().Str("scan_id", report.ID).Logger()
	log.Info().
		Int("universe", len(symbols)).
		Str("timeframe", s.opts.Timeframe).
		Int("concurrency", s.opts.Concurrency).
		Msg("scan started")

	outcomes := make([]outcome, len(symbols))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		if ctx.Err() != nil {
			outcomes[i] = canceled(symbol)
			continue
		}
		g.Go(func() error {
			outcomes[i] = s.scanOne(ctx, log, symbol)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		switch {
		case o.result != nil:
			report.Add(*o.result)
			s.metrics.IncInstrument(outcomeLabel(o.result.Signal))
		case o.skip != nil:
			report.Skip(*o.skip)
			s.metrics.IncInstrument(string(o.skip.Reason))
			if o.skip.Reason == model.SkipCanceled {
				report.Partial = true
			}
		}
	}
	report.FinishedAt = s.now().UTC()

	c := report.Counts()
	outcomeName := "ok"
	if report.Partial {
		outcomeName = "partial"
	}
	s.metrics.ObserveScan(outcomeName, report.FinishedAt.Sub(report.StartedAt).Seconds())
	log.Info().
		Int("long", c.Long).
		Int("short", c.Short).
		Int("neutral", c.Neutral).
		Int("skipped", c.Skipped).
		Bool("partial", report.Partial).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan finished")
	return report
}

func (s *Scanner) scanOne(ctx context.Context, log zerolog.Logger, symbol string) outcome {
	if ctx.Err() != nil {
		return canceled(symbol)
	}

	primary, err := s.fetcher.FetchSeries(ctx, symbol, s.opts.Timeframe, s.opts.Limit)
	if err != nil {
		return s.fetchFailed(ctx, log, symbol, s.opts.Timeframe, err)
	}
	last, ok := primary.Last()
	if !ok {
		return skip(log, symbol, s.opts.Timeframe, model.SkipInsufficientData, errors.New("empty series"))
	}

	daily, err := s.fetcher.FetchSeries(ctx, symbol, dailyInterval, s.opts.DailyLimit)
	if err != nil {
		return s.fetchFailed(ctx, log, symbol, dailyInterval, err)
	}

	eligible, err := strategy.Eligible(last.Close, daily.Candles)
	if err != nil {
		return skip(log, symbol, dailyInterval, model.SkipInsufficientData, err)
	}
	if !eligible {
		log.Debug().Str("symbol", symbol).Float64("price", last.Close).Msg("inside prior day range")
		return outcome{skip: &model.Skipped{Symbol: symbol, Reason: model.SkipIneligible}}
	}
	high, low, _ := calculator.PriorDayRange(daily.Candles)

	snap := calculator.Compute(primary, s.opts.Params)
	res := model.ScanResult{
		Symbol:    symbol,
		Price:     last.Close,
		Eligible:  true,
		PriorHigh: high,
		PriorLow:  low,
		Snapshot:  snap,
		Signal:    strategy.Decide(snap, last.Close),
	}
	if !snap.Complete() {
		log.Debug().Str("symbol", symbol).Int("candles", primary.Len()).Msg("indicator history incomplete")
	}
	return outcome{result: &res}
}

func (s *Scanner) fetchFailed(ctx context.Context, log zerolog.Logger, symbol, interval string, err error) outcome {
	if ctx.Err() != nil {
		return canceled(symbol)
	}
	s.metrics.IncFetchError(interval)
	return skip(log, symbol, interval, model.SkipFetchFailed, err)
}

func skip(log zerolog.Logger, symbol, interval string, reason model.SkipReason, err error) outcome {
	log.Warn().
		Err(err).
		Str("symbol", symbol).
		Str("interval", interval).
		Str("reason", string(reason)).
		Msg("instrument skipped")
	return outcome{skip: &model.Skipped{Symbol: symbol, Reason: reason, Error: err.Error()}}
}

func canceled(symbol string) outcome {
	return outcome{skip: &model.Skipped{Symbol: symbol, Reason: model.SkipCanceled}}
}

func outcomeLabel(sig model.Signal) string {
	switch sig {
	case model.SignalLong:
		return "long"
	case model.SignalShort:
		return "short"
	default:
		return "neutral"
	}
}
