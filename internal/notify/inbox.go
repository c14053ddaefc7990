package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultToastTTL is how long an in-app toast stays before auto-dismissal.
const DefaultToastTTL = 4500 * time.Millisecond

// DefaultInboxSize bounds how many toasts are kept at once.
const DefaultInboxSize = 20

// Toast is one in-app notification awaiting display.
type Toast struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

// Inbox is the in-app channel's sink: a short queue of toasts that expire on
// their own. It is safe for concurrent use.
type Inbox struct {
	mu     sync.Mutex
	toasts []Toast
	timers map[string]func() bool

	ttl   time.Duration
	size  int
	after AfterFunc
	now   func() time.Time
}

// InboxOption customizes an Inbox.
type InboxOption func(*Inbox)

// WithTTL overrides DefaultToastTTL. A zero ttl disables auto-dismissal.
func WithTTL(ttl time.Duration) InboxOption { return func(i *Inbox) { i.ttl = ttl } }

// WithSize overrides DefaultInboxSize.
func WithSize(n int) InboxOption { return func(i *Inbox) { i.size = n } }

// WithAfterFunc replaces the timer used for auto-dismissal.
func WithAfterFunc(fn AfterFunc) InboxOption { return func(i *Inbox) { i.after = fn } }

// NewInbox returns an empty inbox.
func NewInbox(opts ...InboxOption) *Inbox {
	i := &Inbox{
		timers: make(map[string]func() bool),
		ttl:    DefaultToastTTL,
		size:   DefaultInboxSize,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Push adds a toast and schedules its dismissal. When the inbox is full the
// oldest toast is dropped.
func (i *Inbox) Push(text string) Toast {
	t := Toast{ID: uuid.NewString(), Text: text, CreatedAt: i.now()}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.size > 0 && len(i.toasts) >= i.size {
		i.removeLocked(i.toasts[0].ID)
	}
	i.toasts = append(i.toasts, t)
	if i.ttl > 0 {
		id := t.ID
		i.timers[id] = i.after(i.ttl, func() { i.Remove(id) })
	}
	return t
}

// Remove dismisses a toast. It reports whether the toast was present.
func (i *Inbox) Remove(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.removeLocked(id)
}

// List returns the pending toasts, oldest first.
func (i *Inbox) List() []Toast {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Toast{}, i.toasts...)
}

func (i *Inbox) removeLocked(id string) bool {
	if stop, ok := i.timers[id]; ok {
		stop()
		delete(i.timers, id)
	}
	for idx, t := range i.toasts {
		if t.ID == id {
			i.toasts = append(i.toasts[:idx], i.toasts[idx+1:]...)
			return true
		}
	}
	return false
}
