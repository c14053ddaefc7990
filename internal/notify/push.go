// Package notify implements the delivery side of the alert channels:
// push permission state, push delivery, and the in-app inbox.
//
// Email has no dispatcher. It is simulated by a second history record.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/storage"
)

// ChannelPush is the Redis channel a gateway subscribes to for push delivery.
const ChannelPush = "EVENT_PUSH_NOTIFICATION"

// PushMessage is what a push dispatcher delivers. Tag lets the receiving
// platform collapse repeats of the same match.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

// Pusher delivers a push notification. Callers treat errors as best-effort.
type Pusher interface {
	Push(ctx context.Context, msg PushMessage) error
}

// RedisPusher hands push messages to the gateway over Redis pub/sub.
type RedisPusher struct {
	rdb *redis.Client
}

// NewRedisPusher returns a pusher publishing on ChannelPush.
func NewRedisPusher(rdb *redis.Client) *RedisPusher {
	return &RedisPusher{rdb: rdb}
}

func (p *RedisPusher) Push(ctx context.Context, msg PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}
	if err := p.rdb.Publish(ctx, ChannelPush, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelPush, err)
	}
	return nil
}

// PermissionStore persists the user's push permission decision.
//
// When push delivery is not configured the state is always "unsupported" and
// requests are refused.
type PermissionStore struct {
	mu        sync.Mutex
	port      storage.Port
	supported bool
}

// NewPermissionStore returns a store over port.
func NewPermissionStore(port storage.Port, supported bool) *PermissionStore {
	return &PermissionStore{port: port, supported: supported}
}

type permissionDoc struct {
	State model.PushPermission `json:"state"`
}

// State returns the current permission. Unreadable state reads as "default".
func (s *PermissionStore) State(ctx context.Context) model.PushPermission {
	if !s.supported {
		return model.PermissionUnsupported
	}
	var doc permissionDoc
	if !storage.GetJSON(ctx, s.port, storage.KeyPushPermission, &doc) {
		return model.PermissionDefault
	}
	return model.ParsePushPermission(string(doc.State))
}

// Request records an explicit user decision and returns the resulting state.
// Only "granted" and "denied" are decisions; anything else leaves the state as
// it was. A failed write falls back to the stored state.
func (s *PermissionStore) Request(ctx context.Context, decision model.PushPermission) model.PushPermission {
	if !s.supported {
		return model.PermissionUnsupported
	}
	if decision != model.PermissionGranted && decision != model.PermissionDenied {
		return s.State(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !storage.SetJSON(ctx, s.port, storage.KeyPushPermission, permissionDoc{State: decision}) {
		return s.State(ctx)
	}
	return decision
}
