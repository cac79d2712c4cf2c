package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"bbbank/bbbank-ui/internal/config"
	"bbbank/bbbank-ui/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		HTTP: config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		Session: config.SessionConfig{
			Backend:      backend,
			CookieSecret: "secret",
			ClientCookie: "bbbank_client",
			StateFile:    filepath.Join(dir, "ui_storage.json"),
		},
		Auth:            config.AuthConfig{LoginDelay: time.Second},
		FrontendDistDir: filepath.Join(dir, "dist"),
		AuditLogFile:    filepath.Join(dir, "audit.log"),
	}
}

func TestNewSelectsSessionProvider(t *testing.T) {
	cases := []struct {
		backend string
		scoped  bool
	}{
		{backend: config.BackendCookie},
		{backend: config.BackendMemory, scoped: true},
		{backend: config.BackendFile, scoped: true},
	}
	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			a := &App{cfg: testConfig(t, tc.backend), log: quietLogger()}
			p, err := a.sessionProvider()
			if err != nil {
				t.Fatalf("sessionProvider() error: %v", err)
			}
			_, scoped := p.(session.ScopedProvider)
			if scoped != tc.scoped {
				t.Fatalf("expected scoped=%v, got provider %T", tc.scoped, p)
			}
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(testConfig(t, "etcd")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Redis.URL = "://nope"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for invalid redis url")
	}
}

func TestNewCookieBackend(t *testing.T) {
	a, err := New(testConfig(t, config.BackendCookie))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.server == nil {
		t.Fatalf("expected server to be built")
	}
}
