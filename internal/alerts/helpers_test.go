package alerts_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jobmate/alerts-service/internal/alerts"
	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/notify"
	"jobmate/alerts-service/internal/storage"
)

// tickingClock advances one second on every read so timestamps are ordered.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *tickingClock {
	return &tickingClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// sequentialIDs returns id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	port    storage.Port
	bus     *events.Bus
	events  []events.Event
	rules   *alerts.RuleStore
	history *alerts.HistoryStore
	perms   *fakePermissions
	pusher  *fakePusher
	matcher *alerts.Matcher
}

func newFixture() *fixture {
	return newFixtureOn(storage.NewMemory())
}

func newFixtureOn(port storage.Port) *fixture {
	f := &fixture{
		port:   port,
		bus:    events.NewBus(nil),
		perms:  &fakePermissions{state: model.PermissionDefault},
		pusher: &fakePusher{},
	}
	f.bus.Subscribe(func(e events.Event) { f.events = append(f.events, e) })

	clock := newClock()
	ids := sequentialIDs()
	opts := []alerts.Option{alerts.WithClock(clock.Now), alerts.WithIDGenerator(ids)}
	f.rules = alerts.NewRuleStore(f.port, f.bus, opts...)
	f.history = alerts.NewHistoryStore(f.port, f.bus, opts...)
	f.matcher = alerts.NewMatcher(f.rules, f.history, f.perms, f.pusher, opts...)
	return f
}

func (f *fixture) allHistory() []model.NotificationRecord {
	return f.history.List(context.Background(), 1_000_000)
}

type fakePermissions struct{ state model.PushPermission }

func (p *fakePermissions) State(context.Context) model.PushPermission { return p.state }

type fakePusher struct {
	mu    sync.Mutex
	sent  []notify.PushMessage
	err   error
	panic bool
}

func (p *fakePusher) Push(_ context.Context, msg notify.PushMessage) error {
	if p.panic {
		panic("push exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return p.err
}

var errUnavailable = errors.New("storage unavailable")

// flakyPort fails reads and/or writes on demand and otherwise behaves like
// the in-memory port.
type flakyPort struct {
	*storage.Memory
	failGet bool
	failSet bool
}

func (p *flakyPort) Get(ctx context.Context, key string) ([]byte, error) {
	if p.failGet {
		return nil, errUnavailable
	}
	return p.Memory.Get(ctx, key)
}

func (p *flakyPort) Set(ctx context.Context, key string, value []byte) error {
	if p.failSet {
		return errUnavailable
	}
	return p.Memory.Set(ctx, key, value)
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func kw(words ...string) *model.Keywords {
	k := model.Keywords(words)
	return &k
}
