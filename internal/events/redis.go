package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis channels shared with the gateway and the job-management service.
const (
	ChannelRuleChanged = "EVENT_ALERT_RULE_CHANGED"
	ChannelNotified    = "EVENT_ALERT_NOTIFIED"
	ChannelJobsChanged = "EVENT_JOBS_CHANGED"
)

// RedisBridge mirrors local events onto Redis pub/sub and feeds job-change
// messages published by other services back into the local bus.
type RedisBridge struct {
	rdb *redis.Client
	bus *Bus
	log *zap.Logger
}

// NewRedisBridge wires rdb to bus. Call Forward and Listen to activate each direction.
func NewRedisBridge(rdb *redis.Client, bus *Bus, log *zap.Logger) *RedisBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBridge{rdb: rdb, bus: bus, log: log}
}

// Forward subscribes to the bus and publishes rule and notify events to Redis.
// Publish failures are logged and otherwise ignored.
func (b *RedisBridge) Forward(ctx context.Context) (stop func()) {
	return b.bus.Subscribe(func(e Event) {
		var channel string
		switch e.Kind {
		case KindRuleChange:
			channel = ChannelRuleChanged
		case KindNotify:
			channel = ChannelNotified
		default:
			return
		}
		payload, err := json.Marshal(e)
		if err != nil {
			b.log.Warn("marshal event failed", zap.String("kind", string(e.Kind)), zap.Error(err))
			return
		}
		if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			b.log.Warn("publish failed", zap.String("channel", channel), zap.Error(err))
		}
	})
}

// jobsChangedMessage is what the job-management service publishes.
type jobsChangedMessage struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// Listen relays EVENT_JOBS_CHANGED messages as KindJobsChange events until ctx
// is cancelled. Malformed payloads still trigger an event without an id.
func (b *RedisBridge) Listen(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, ChannelJobsChanged)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m jobsChangedMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.log.Debug("unparsable jobs change payload", zap.Error(err))
			}
			b.bus.Publish(Event{Kind: KindJobsChange, Action: m.Action, ID: m.ID})
		}
	}
}
