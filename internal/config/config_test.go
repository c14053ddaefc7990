package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobmate/alerts-service/internal/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8083" || cfg.GRPCPort != "9093" {
		t.Errorf("ports = %s/%s", cfg.Port, cfg.GRPCPort)
	}
	if cfg.StorageBackend != config.BackendMemory || cfg.SQLitePath != "data/alerts.db" {
		t.Errorf("storage = %s %s", cfg.StorageBackend, cfg.SQLitePath)
	}
	if cfg.MatchInterval != 0 || cfg.PushEnabled || cfg.EventsRedis || cfg.Debug {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.NeedsRedis() {
		t.Error("memory backend should not need redis")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := config.LoadFrom(env(map[string]string{
		"ALERTS_PORT":     "9000",
		"STORAGE_BACKEND": "Redis",
		"REDIS_URL":       "redis://localhost:6379/0",
		"MATCH_INTERVAL":  "30m",
		"PUSH_ENABLED":    "true",
		"DEBUG":           "1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.StorageBackend != config.BackendRedis {
		t.Errorf("got %+v", cfg)
	}
	if cfg.MatchInterval != 30*time.Minute || !cfg.PushEnabled || !cfg.Debug {
		t.Errorf("got %+v", cfg)
	}
	if !cfg.NeedsRedis() {
		t.Error("redis backend should need redis")
	}
}

func TestLoad_FailFast(t *testing.T) {
	cases := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"redis without url", map[string]string{"STORAGE_BACKEND": "redis"}, "REDIS_URL"},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}, "STORAGE_BACKEND"},
		{"events without redis", map[string]string{"EVENTS_REDIS": "true"}, "REDIS_URL"},
		{"bad interval", map[string]string{"MATCH_INTERVAL": "often"}, "MATCH_INTERVAL"},
		{"sub-second interval", map[string]string{"MATCH_INTERVAL": "10ms"}, "MATCH_INTERVAL"},
		{"bad bool", map[string]string{"PUSH_ENABLED": "maybe"}, "PUSH_ENABLED"},
		{"missing file", map[string]string{"ALERTS_CONFIG": "/nonexistent/alerts.yaml"}, "ALERTS_CONFIG"},
	}
	for _, c := range cases {
		_, err := config.LoadFrom(env(c.vars))
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error %q does not mention %s", c.name, err, c.want)
		}
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	data := "port: \"7000\"\nstorage_backend: sqlite\nsqlite_path: /tmp/a.db\nmatch_interval: 5m\njobs_api_base: http://jobs.local\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(env(map[string]string{
		"ALERTS_CONFIG": path,
		"ALERTS_PORT":   "7100",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7100" {
		t.Errorf("env should win over file: port = %s", cfg.Port)
	}
	if cfg.StorageBackend != config.BackendSQLite || cfg.SQLitePath != "/tmp/a.db" {
		t.Errorf("storage = %s %s", cfg.StorageBackend, cfg.SQLitePath)
	}
	if cfg.MatchInterval != 5*time.Minute || cfg.JobsAPIBase != "http://jobs.local" {
		t.Errorf("got %+v", cfg)
	}
}
