// Package provider runs the fetch-and-match cycle that turns new job postings
// into alert notifications.
package provider

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/alerts"
	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/jobsource"
	"jobmate/alerts-service/internal/metrics"
	"jobmate/alerts-service/internal/notify"
)

// JobSource supplies the current job list.
type JobSource interface {
	FetchJobs(ctx context.Context) (jobsource.Result, error)
}

// Toaster receives in-app notifications.
type Toaster interface {
	Push(text string) notify.Toast
}

// Provider fetches jobs and runs the matcher with notifications on. Runs are
// serialized.
type Provider struct {
	source  JobSource
	matcher *alerts.Matcher
	toasts  Toaster
	bus     *events.Bus
	log     *zap.Logger

	mu sync.Mutex
}

// New constructs a Provider. toasts may be nil, in which case in-app matches
// are only logged.
func New(source JobSource, matcher *alerts.Matcher, toasts Toaster, bus *events.Bus, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{source: source, matcher: matcher, toasts: toasts, bus: bus, log: log}
}

// Run executes one cycle and returns the number of new matches. Fetch errors
// are logged and swallowed.
func (p *Provider) Run(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.source.FetchJobs(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Debug("job fetch failed", zap.Error(err))
		}
		return 0
	}
	metrics.ProviderRunsTotal.WithLabelValues(res.From).Inc()

	matches := p.matcher.Match(ctx, res.Jobs, alerts.MatchOptions{
		Notify:        true,
		OnInAppNotify: p.notifyInApp,
	})
	p.log.Debug("provider run complete",
		zap.String("from", res.From), zap.Int("jobs", len(res.Jobs)), zap.Int("matches", len(matches)))
	return len(matches)
}

func (p *Provider) notifyInApp(n alerts.Notification) {
	if p.toasts != nil {
		p.toasts.Push(n.Message)
	}
	p.log.Info("alert match", zap.String("message", n.Message), zap.String("job_id", n.Job.ID), zap.String("rule_id", n.Rule.ID))
}

// Start runs once immediately and again after every jobs:change event, until
// ctx is cancelled. Events arriving during a run coalesce into one rerun.
// Start blocks; call it in its own goroutine.
func (p *Provider) Start(ctx context.Context) {
	trigger := make(chan struct{}, 1)
	unsubscribe := p.bus.Subscribe(func(e events.Event) {
		if e.Kind != events.KindJobsChange {
			return
		}
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	p.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("provider stopped")
			return
		case <-trigger:
			p.Run(ctx)
		}
	}
}
