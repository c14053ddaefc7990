package alerts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/metrics"
	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/notify"
)

// HistoryWindow is how many recent history records a pass loads for
// deduplication. Matches whose only record is older than this window are not
// recognised and will notify again.
// TODO: decide whether to page through full history once stores outgrow the window.
const HistoryWindow = 1000

// pushTitle is the title of every push notification.
const pushTitle = "New job match"

// PermissionSource reports the host's push permission. The matcher only reads
// it; requesting permission is a separate user action.
type PermissionSource interface {
	State(ctx context.Context) model.PushPermission
}

// Notification is passed to the channel callbacks for each new match.
type Notification struct {
	Rule    model.AlertRule
	Job     model.Job
	Message string
}

// MatchOptions controls side effects of a pass. With Notify false the pass
// only reports matches: nothing is recorded and no channel fires.
type MatchOptions struct {
	Notify        bool
	OnInAppNotify func(Notification)
	OnPushNotify  func(Notification)
}

// Matcher joins jobs against the enabled rules and fans new matches out to the
// notification channels. Passes are serialized: one runs to completion before
// the next loads history.
type Matcher struct {
	mu      sync.Mutex
	rules   *RuleStore
	history *HistoryStore
	perms   PermissionSource
	pusher  notify.Pusher
	options
}

// NewMatcher builds a matcher. perms and pusher may be nil, which disables push.
func NewMatcher(rules *RuleStore, history *HistoryStore, perms PermissionSource, pusher notify.Pusher, opts ...Option) *Matcher {
	return &Matcher{
		rules:   rules,
		history: history,
		perms:   perms,
		pusher:  pusher,
		options: buildOptions(opts),
	}
}

// Match returns the (job, rule) matches not notified before, in job order then
// rule order. A single call never reports the same pair twice.
//
// Callbacks run synchronously on the caller's goroutine while the pass holds
// the matcher, so they must not call Match. A panicking OnInAppNotify
// propagates to the caller.
func (m *Matcher) Match(ctx context.Context, jobs []model.Job, opts MatchOptions) []model.Match {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := []model.Match{}

	rules := m.rules.Enabled(ctx)
	if len(jobs) == 0 || len(rules) == 0 {
		return results
	}

	start := time.Now()
	defer func() { metrics.MatchDuration.Observe(time.Since(start).Seconds()) }()

	seen := make(map[string]struct{}, HistoryWindow)
	for _, h := range m.history.List(ctx, HistoryWindow) {
		if h.DedupeKey != "" {
			seen[h.DedupeKey] = struct{}{}
		}
	}

	for _, job := range jobs {
		if job.ID == "" {
			continue
		}
		for _, rule := range rules {
			if !RuleMatchesJob(rule, job) {
				continue
			}
			key := DedupeKey(job.ID, rule.ID)
			if _, ok := seen[key]; ok {
				continue
			}

			message := BuildMessage(rule, job)
			if opts.Notify {
				m.deliver(ctx, rule, job, key, message, opts)
			}

			results = append(results, model.Match{RuleID: rule.ID, JobID: job.ID, Message: message})
			seen[key] = struct{}{}
		}
	}

	metrics.MatchesTotal.Add(float64(len(results)))
	if len(results) > 0 {
		m.log.Info("new alert matches", zap.Int("matches", len(results)), zap.Int("jobs", len(jobs)), zap.Int("rules", len(rules)))
	}
	return results
}

// deliver runs the in-app, push and email channels for one match. The pass has
// already ruled the pair new against its history window, so channels fire even
// when Record finds an older copy outside that window.
func (m *Matcher) deliver(ctx context.Context, rule model.AlertRule, job model.Job, key, message string, opts MatchOptions) {
	n := Notification{Rule: rule, Job: job, Message: message}

	// In-app is always on.
	m.history.Record(ctx, model.NotificationRecord{
		ID:        m.newID(),
		RuleID:    rule.ID,
		JobID:     job.ID,
		Time:      m.timestamp(),
		Channel:   model.ChannelInApp,
		DedupeKey: key,
		Message:   message,
	})
	if opts.OnInAppNotify != nil {
		opts.OnInAppNotify(n)
	}

	if rule.Channels.Push && m.perms != nil && m.perms.State(ctx) == model.PermissionGranted {
		m.push(ctx, notify.PushMessage{Title: pushTitle, Body: message, Tag: key})
		if opts.OnPushNotify != nil {
			opts.OnPushNotify(n)
		}
	}

	// Email is simulated: the record is the delivery.
	if rule.Channels.Email && rule.Email != "" {
		m.history.Record(ctx, model.NotificationRecord{
			ID:        m.newID(),
			RuleID:    rule.ID,
			JobID:     job.ID,
			Time:      m.timestamp(),
			Channel:   model.ChannelEmail,
			DedupeKey: EmailDedupeKey(job.ID, rule.ID),
			Message:   fmt.Sprintf("[Email -> %s] %s", rule.Email, message),
		})
	}
}

// push is best-effort: errors and panics from the dispatcher are dropped.
func (m *Matcher) push(ctx context.Context, msg notify.PushMessage) {
	if m.pusher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.PushFailuresTotal.Inc()
			m.log.Debug("push dispatcher panicked", zap.Any("panic", r), zap.String("tag", msg.Tag))
		}
	}()
	if err := m.pusher.Push(ctx, msg); err != nil {
		metrics.PushFailuresTotal.Inc()
		m.log.Debug("push delivery failed", zap.String("tag", msg.Tag), zap.Error(err))
	}
}

// RuleMatchesJob reports whether every criterion set on rule holds for job.
// Unset criteria always hold. All comparisons are case-insensitive substring
// checks, so the keyword "java" matches "JavaScript Developer".
func RuleMatchesJob(rule model.AlertRule, job model.Job) bool {
	category := job.Category
	if category == "" && len(job.Tags) > 0 {
		category = job.Tags[0]
	}

	kwOK := len(rule.Keywords) == 0
	for _, w := range rule.Keywords {
		if containsFold(job.Title, w) || containsFold(job.Company, w) || tagsInclude(job.Tags, w) {
			kwOK = true
			break
		}
	}

	return kwOK &&
		(rule.Company == "" || containsFold(job.Company, rule.Company)) &&
		(rule.Location == "" || containsFold(job.Location, rule.Location)) &&
		(rule.Category == "" || containsFold(category, rule.Category))
}

// BuildMessage renders the human-readable text of a match.
func BuildMessage(rule model.AlertRule, job model.Job) string {
	var parts []string
	if len(rule.Keywords) > 0 {
		parts = append(parts, `Matched "`+strings.Join(rule.Keywords, " / ")+`"`)
	}
	if rule.Company != "" {
		parts = append(parts, "Company "+firstNonEmpty(job.Company, rule.Company))
	}

	title := firstNonEmpty(job.Title, "Job")
	detail := "New match"
	if len(parts) > 0 {
		detail = strings.Join(parts, " • ")
	}
	return title + " • " + detail
}

func containsFold(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}

func tagsInclude(tags []string, word string) bool {
	for _, t := range tags {
		if containsFold(t, word) {
			return true
		}
	}
	return false
}
