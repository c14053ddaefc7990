package notify_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/notify"
	"jobmate/alerts-service/internal/storage"
)

func TestPermissionStore(t *testing.T) {
	ctx := context.Background()
	s := notify.NewPermissionStore(storage.NewMemory(), true)

	if got := s.State(ctx); got != model.PermissionDefault {
		t.Errorf("initial State = %q", got)
	}
	cases := []struct {
		decision model.PushPermission
		want     model.PushPermission
	}{
		{model.PermissionGranted, model.PermissionGranted},
		{model.PermissionDefault, model.PermissionGranted},
		{"bogus", model.PermissionGranted},
		{model.PermissionDenied, model.PermissionDenied},
	}
	for _, c := range cases {
		if got := s.Request(ctx, c.decision); got != c.want {
			t.Errorf("Request(%q) = %q, want %q", c.decision, got, c.want)
		}
		if got := s.State(ctx); got != c.want {
			t.Errorf("State after Request(%q) = %q, want %q", c.decision, got, c.want)
		}
	}
}

func TestPermissionStore_Unsupported(t *testing.T) {
	ctx := context.Background()
	s := notify.NewPermissionStore(storage.NewMemory(), false)
	if got := s.Request(ctx, model.PermissionGranted); got != model.PermissionUnsupported {
		t.Errorf("Request = %q, want unsupported", got)
	}
	if got := s.State(ctx); got != model.PermissionUnsupported {
		t.Errorf("State = %q, want unsupported", got)
	}
}

func TestPermissionStore_CorruptReadsDefault(t *testing.T) {
	ctx := context.Background()
	port := storage.NewMemory()
	_ = port.Set(ctx, storage.KeyPushPermission, []byte(`{"state":`))
	if got := notify.NewPermissionStore(port, true).State(ctx); got != model.PermissionDefault {
		t.Errorf("State = %q, want default", got)
	}
}

func TestRedisPusher(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := rdb.Subscribe(ctx, notify.ChannelPush)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	want := notify.PushMessage{Title: "New job match", Body: "Engineer", Tag: "1::r"}
	if err := notify.NewRedisPusher(rdb).Push(ctx, want); err != nil {
		t.Fatal(err)
	}
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got notify.PushMessage
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil || got != want {
		t.Errorf("received %q (%v)", msg.Payload, err)
	}
}
