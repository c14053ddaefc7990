// Package storage defines the key/value port the alert stores persist through.
//
// Every value is an opaque JSON document. Backends do not interpret it and do
// not provide transactions: callers read, modify and write back, and the last
// writer wins.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
)

// Versioned keys for the documents owned by this service.
const (
	KeyAlertRules     = "jb_alerts_rules_v1"
	KeyNotifications  = "jb_alerts_notifications_v1"
	KeyPushPermission = "jb_push_permission_v1"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Port reads and writes JSON blobs by key.
type Port interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value stored under key into dst. It reports false when the
// key is missing, unreadable or not valid JSON for dst; dst is left untouched in
// that case.
func GetJSON(ctx context.Context, p Port, key string, dst any) bool {
	raw, err := p.Get(ctx, key)
	if err != nil || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false
	}
	// Decode into a fresh value so a half-decoded document never leaks into dst.
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return false
	}
	target.Elem().Set(fresh.Elem())
	return true
}

// SetJSON encodes v and stores it under key. A nil v removes the key.
func SetJSON(ctx context.Context, p Port, key string, v any) bool {
	if v == nil {
		return p.Delete(ctx, key) == nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return p.Set(ctx, key, raw) == nil
}
