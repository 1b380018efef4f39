package services

import (
	"context"
	"sync"
	"time"

	"clinicpro-backend/pkg/zlog"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule is how often due reminders are processed.
const DefaultSchedule = "@every 5m"

// Processor runs one pass over due reminder schedules.
type Processor interface {
	ProcessScheduledNotifications(ctx context.Context) (ProcessSummary, error)
}

// RunReport describes one finished pass.
type RunReport struct {
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
	Summary   ProcessSummary `json:"summary"`
	Error     string         `json:"error,omitempty"`
	Manual    bool           `json:"manual"`
}

// SchedulerStatus is returned to operators.
type SchedulerStatus struct {
	IsRunning     bool       `json:"isRunning"`
	Schedule      string     `json:"schedule"`
	NextExecution *time.Time `json:"nextExecution,omitempty"`
	LastRun       *RunReport `json:"lastRun,omitempty"`
}

// Scheduler periodically asks its Processor to dispatch due reminders.
// Passes never overlap: cron ticks that fire while a pass is still running
// are skipped and manual runs wait for the running pass.
type Scheduler struct {
	processor Processor
	spec      string
	parser    cron.Parser

	mu      sync.Mutex
	c       *cron.Cron
	entryID cron.EntryID
	lastRun *RunReport

	runMu sync.Mutex
}

// NewScheduler validates spec (a cron expression or "@every <duration>").
func NewScheduler(p Processor, spec string) (*Scheduler, error) {
	if p == nil {
		return nil, errors.New("processor is required")
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, errors.Wrapf(err, "invalid reminder schedule %q", spec)
	}
	return &Scheduler{processor: p, spec: spec, parser: parser}, nil
}

// Start begins periodic processing. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		zlog.Warn("reminder scheduler already running")
		return
	}

	logger := cronLogger{zlog.L().Sugar()}
	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(s.spec, func() { s.run(context.Background(), false) })
	if err != nil {
		// spec was validated in NewScheduler
		zlog.Error("register reminder job failed", zap.Error(err))
		return
	}
	c.Start()

	s.c = c
	s.entryID = id
	zlog.Info("reminder scheduler started", zap.String("schedule", s.spec))
}

// Stop halts future ticks without waiting. A pass already in flight runs to
// completion; the returned context is done once it has.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	done := c.Stop()
	zlog.Info("reminder scheduler stopped")
	return done
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SchedulerStatus{IsRunning: s.c != nil, Schedule: s.spec}
	if s.c != nil {
		if next := s.c.Entry(s.entryID).Next; !next.IsZero() {
			st.NextExecution = &next
		}
	}
	if s.lastRun != nil {
		r := *s.lastRun
		st.LastRun = &r
	}
	return st
}

// ProcessNow runs a pass immediately, waiting for any running pass first.
// Cancelling ctx does not abort the pass: schedules it claims are always
// carried to their next status.
func (s *Scheduler) ProcessNow(ctx context.Context) RunReport {
	return s.run(context.WithoutCancel(ctx), true)
}

func (s *Scheduler) run(ctx context.Context, manual bool) RunReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	report := RunReport{StartedAt: time.Now(), Manual: manual}
	summary, err := s.processor.ProcessScheduledNotifications(ctx)
	report.Duration = time.Since(report.StartedAt)
	report.Summary = summary

	fields := []zap.Field{
		zap.Bool("manual", manual),
		zap.Duration("took", report.Duration),
		zap.Int("due", summary.Due),
		zap.Int("sent", summary.Sent),
		zap.Int("retried", summary.Retried),
		zap.Int("failed", summary.Failed),
	}
	if err != nil {
		report.Error = err.Error()
		zlog.Error("reminder pass failed", append(fields, zap.Error(err))...)
	} else {
		zlog.Info("reminder pass finished", fields...)
	}

	s.mu.Lock()
	s.lastRun = &report
	s.mu.Unlock()
	return report
}

// cronLogger routes the cron library's logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
