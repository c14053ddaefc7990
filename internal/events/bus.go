// Package events carries fire-and-forget change notifications between the
// stores and their observers. Observers register explicitly; nothing is
// broadcast globally.
package events

import (
	"sync"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/model"
)

// Kind names an event type.
type Kind string

const (
	KindRuleChange Kind = "alerts:change"
	KindNotify     Kind = "alerts:notify"
	KindJobsChange Kind = "jobs:change"
)

// Rule change actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is a single notification. Which payload fields are set depends on Kind:
// rule changes carry Action, ID and Rule (nil on delete); notify events carry
// Record; job changes carry Action and ID of the mutated job, when known.
type Event struct {
	Kind   Kind                      `json:"kind"`
	Action string                    `json:"action,omitempty"`
	ID     string                    `json:"id,omitempty"`
	Rule   *model.AlertRule          `json:"rule,omitempty"`
	Record *model.NotificationRecord `json:"record,omitempty"`
}

// Handler receives events. It must not block for long: it runs on the
// publisher's goroutine.
type Handler func(Event)

// Publisher is the narrow side of the bus the stores depend on.
type Publisher interface {
	Publish(Event)
}

// Bus is a synchronous observer list.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
	log      *zap.Logger
}

// NewBus returns an empty bus. A nil logger disables panic logging.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{handlers: make(map[int]Handler), log: log}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler in registration order. A panicking handler is
// logged and skipped.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("event handler panicked", zap.String("kind", string(e.Kind)), zap.Any("panic", r))
		}
	}()
	h(e)
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}
