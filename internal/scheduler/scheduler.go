// Package scheduler wires up the cron job that periodically re-runs the alerts
// provider, so matches surface even when no jobs:change event arrives.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is one fetch-and-match cycle.
type Runner interface {
	Run(ctx context.Context) int
}

// Scheduler wraps robfig/cron and manages the match loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string // cron spec, e.g. "@every 30m"
	log    *zap.Logger
}

// New creates a Scheduler that fires every interval.
func New(runner Runner, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{log.Sugar()}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log.Sugar()}))),
		runner: runner,
		spec:   fmt.Sprintf("@every %s", interval),
		log:    log,
	}
}

// Spec returns the cron expression in use.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the job and starts the scheduler. The provider already runs
// once on startup, so the first cron run happens after one interval.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runMatch(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runMatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := s.runner.Run(ctx)
	s.log.Debug("scheduled match cycle complete", zap.Int("matches", n))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
