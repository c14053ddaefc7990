package notify_test

import (
	"sync"
	"testing"
	"time"

	"jobmate/alerts-service/internal/notify"
)

// manualTimers records scheduled callbacks so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (m *manualTimers) after(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	m.pending = append(m.pending, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// fireAll runs every timer that has not been stopped.
func (m *manualTimers) fireAll() {
	m.mu.Lock()
	var due []func()
	for _, t := range m.pending {
		if !t.stopped {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	m.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func TestInbox_PushListRemove(t *testing.T) {
	in := notify.NewInbox(notify.WithTTL(0))
	a := in.Push("first")
	b := in.Push("second")

	got := in.List()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("List = %+v, want oldest first", got)
	}
	if a.ID == b.ID || a.Text != "first" {
		t.Errorf("unexpected toasts %+v %+v", a, b)
	}
	if !in.Remove(a.ID) {
		t.Error("Remove existing should report true")
	}
	if in.Remove(a.ID) {
		t.Error("Remove missing should report false")
	}
	if got := in.List(); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("List after remove = %+v", got)
	}
}

func TestInbox_AutoDismiss(t *testing.T) {
	timers := &manualTimers{}
	in := notify.NewInbox(notify.WithAfterFunc(timers.after))
	in.Push("hello")

	if len(timers.pending) != 1 || timers.pending[0].d != notify.DefaultToastTTL {
		t.Fatalf("scheduled %+v, want one timer of %s", timers.pending, notify.DefaultToastTTL)
	}
	timers.fireAll()
	if got := in.List(); len(got) != 0 {
		t.Errorf("toast survived its TTL: %+v", got)
	}
}

func TestInbox_ManualRemoveStopsTimer(t *testing.T) {
	timers := &manualTimers{}
	in := notify.NewInbox(notify.WithAfterFunc(timers.after))
	toast := in.Push("hello")
	in.Remove(toast.ID)

	if !timers.pending[0].stopped {
		t.Error("timer still armed after manual removal")
	}
}

func TestInbox_EvictsOldestWhenFull(t *testing.T) {
	in := notify.NewInbox(notify.WithTTL(0), notify.WithSize(2))
	in.Push("a")
	in.Push("b")
	in.Push("c")

	got := in.List()
	if len(got) != 2 || got[0].Text != "b" || got[1].Text != "c" {
		t.Errorf("List = %+v, want [b c]", got)
	}
}
