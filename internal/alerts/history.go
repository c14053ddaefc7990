package alerts

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/metrics"
	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/storage"
)

// DefaultHistoryLimit is what List returns when asked for limit <= 0.
const DefaultHistoryLimit = 50

// HistoryStore is the append-only notification log. There is no retention:
// records are never rewritten or evicted.
type HistoryStore struct {
	mu   sync.Mutex
	port storage.Port
	pub  events.Publisher
	options
}

// NewHistoryStore returns a store persisting through port. pub may be nil.
func NewHistoryStore(port storage.Port, pub events.Publisher, opts ...Option) *HistoryStore {
	if pub == nil {
		pub = events.Discard{}
	}
	return &HistoryStore{port: port, pub: pub, options: buildOptions(opts)}
}

// DedupeKey is the idempotence key of an in-app (job, rule) notification.
func DedupeKey(jobID, ruleID string) string {
	return jobID + "::" + ruleID
}

// EmailDedupeKey keeps simulated email in its own key namespace.
func EmailDedupeKey(jobID, ruleID string) string {
	return "email::" + DedupeKey(jobID, ruleID)
}

// List returns up to limit records, most recent first. Ordering compares the
// time strings directly.
func (h *HistoryStore) List(ctx context.Context, limit int) []model.NotificationRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h.mu.Lock()
	list := h.load(ctx)
	h.mu.Unlock()

	sort.SliceStable(list, func(i, j int) bool { return list[i].Time > list[j].Time })
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

// Record normalizes e and appends it unless a record with the same dedupe key
// already exists. It reports whether a record was written.
func (h *HistoryStore) Record(ctx context.Context, e model.NotificationRecord) bool {
	entry := h.normalize(e)

	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.load(ctx)
	if entry.DedupeKey != "" {
		for _, existing := range list {
			if existing.DedupeKey == entry.DedupeKey {
				metrics.NotificationsDuplicateTotal.Inc()
				return false
			}
		}
	}

	list = append(list, entry)
	if !storage.SetJSON(ctx, h.port, storage.KeyNotifications, list) {
		h.log.Warn("persist notification failed", zap.String("dedupeKey", entry.DedupeKey))
		return false
	}
	metrics.NotificationsRecordedTotal.WithLabelValues(string(entry.Channel)).Inc()
	h.pub.Publish(events.Event{Kind: events.KindNotify, ID: entry.ID, Record: &entry})
	return true
}

func (h *HistoryStore) load(ctx context.Context) []model.NotificationRecord {
	var list []model.NotificationRecord
	if !storage.GetJSON(ctx, h.port, storage.KeyNotifications, &list) || list == nil {
		return []model.NotificationRecord{}
	}
	return list
}

func (h *HistoryStore) normalize(e model.NotificationRecord) model.NotificationRecord {
	if e.ID == "" {
		e.ID = h.newID()
	}
	if e.Time == "" {
		e.Time = h.timestamp()
	}
	if e.Channel == "" {
		e.Channel = model.ChannelInApp
	}
	if e.Message == "" {
		e.Message = "New job match"
	}
	if e.DedupeKey == "" && e.RuleID != "" && e.JobID != "" {
		e.DedupeKey = DedupeKey(e.JobID, e.RuleID)
	}
	return e
}
