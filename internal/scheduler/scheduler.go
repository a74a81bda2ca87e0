package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SignalScanner/internal/metrics"
	"SignalScanner/internal/model"
	"SignalScanner/internal/notifier"
)

// Runner produces one scan report.
type Runner interface {
	Run(ctx context.Context) (*model.Report, error)
}

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Outcome is a finished scan run together with its delivery status.
type Outcome struct {
	Report    *model.Report
	NotifyErr error
}

// Scheduler runs scans on a cron schedule and on demand, and posts each report.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  Runner
	Notifier Sender
	Retries  int
	Ctx      context.Context

	log     zerolog.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// NewScheduler creates a new Scheduler. Cron runs that start while the previous
// one is still in progress are skipped.
func NewScheduler(ctx context.Context, sc Runner, n Sender, log zerolog.Logger, m *metrics.Metrics) *Scheduler {
	cronLog := cron.PrintfLogger(&log)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		Scanner:  sc,
		Notifier: n,
		Retries:  3,
		Ctx:      ctx,
		log:      log,
		metrics:  m,
	}
}

// Register adds the scan job under expr (six fields, seconds first).
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.scheduledScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	s.log.Info().Str("cron", expr).Msg("scan task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) scheduledScan() {
	if _, err := s.RunScan(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled scan failed")
	}
}

// RunScan executes one scan, formats the report and sends it. Scan errors are
// returned; a delivery failure is reported in Outcome.NotifyErr.
func (s *Scheduler) RunScan(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.Scanner.Run(ctx)
	if err != nil {
		s.trySend(ctx, "❌ Scan failed: "+html.EscapeString(err.Error()))
		return Outcome{}, err
	}

	out := Outcome{Report: report}
	if err := s.Notifier.SendWithRetry(ctx, notifier.FormatReport(report), s.Retries); err != nil {
		s.metrics.IncNotifyFailure()
		s.log.Error().Err(err).Str("scan_id", report.ID).Msg("send report failed")
		out.NotifyErr = err
	}
	return out, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/scan":
		s.trySend(ctx, "🔎 Scan started...")
		if _, err := s.RunScan(ctx); err != nil {
			s.log.Error().Err(err).Msg("command scan failed")
		}
		return ""
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, s.Retries); err != nil {
		s.metrics.IncNotifyFailure()
		s.log.Error().Err(err).Msg("send notification failed")
	}
}
