package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ui_storage.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() error: %v", err)
	}

	store, _ := NewStore(backend, "tab-1")
	if err := store.Set(ctx, testUser); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	backend2, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() second error: %v", err)
	}
	store2, _ := NewStore(backend2, "tab-1")
	got, err := store2.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Username != "waqastariq" {
		t.Fatalf("expected username waqastariq, got %q", got.Username)
	}

	if err := store2.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	backend3, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() third error: %v", err)
	}
	if _, err := backend3.Read(ctx, "tab-1", Key); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound after clear, got %v", err)
	}
}

func TestFileBackendRejectsBrokenStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui_storage.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if _, err := NewFileBackend(path); err == nil {
		t.Fatalf("expected decode error for broken state file")
	}
}

func TestFileBackendRequiresPath(t *testing.T) {
	if _, err := NewFileBackend(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFileBackendDeleteKeepsRecordWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ui_storage.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() error: %v", err)
	}
	if err := backend.Write(ctx, "tab-1", Key, []byte(`{"username":"waqastariq"}`)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	// A directory in place of the state file makes every rewrite fail.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove state file: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir over state file: %v", err)
	}

	if err := backend.Delete(ctx, "tab-1", Key); err == nil {
		t.Fatalf("expected Delete() to fail when the state file cannot be written")
	}
	got, err := backend.Read(ctx, "tab-1", Key)
	if err != nil {
		t.Fatalf("expected record to survive failed delete, got %v", err)
	}
	if string(got) != `{"username":"waqastariq"}` {
		t.Fatalf("unexpected record after failed delete: %s", got)
	}
}
