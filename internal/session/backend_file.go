package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend keeps every scope in one JSON document that is rewritten on each
// mutation. Values are stored as strings, the way browser storage holds them.
type FileBackend struct {
	path string

	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewFileBackend(path string) (*FileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage state file path is required")
	}

	b := &FileBackend{
		path:   path,
		scopes: make(map[string]map[string]string),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FileBackend) Read(_ context.Context, scope, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.scopes[scope][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(v), nil
}

func (b *FileBackend) Write(_ context.Context, scope, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kv, ok := b.scopes[scope]
	if !ok {
		kv = make(map[string]string)
		b.scopes[scope] = kv
	}
	prev, had := kv[key]
	kv[key] = string(value)
	if err := b.persistLocked(); err != nil {
		if had {
			kv[key] = prev
		} else {
			delete(kv, key)
		}
		return err
	}
	return nil
}

func (b *FileBackend) Delete(_ context.Context, scope, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kv, ok := b.scopes[scope]
	if !ok {
		return nil
	}
	prev, ok := kv[key]
	if !ok {
		return nil
	}
	delete(kv, key)
	if len(kv) == 0 {
		delete(b.scopes, scope)
	}
	if err := b.persistLocked(); err != nil {
		kv[key] = prev
		b.scopes[scope] = kv
		return err
	}
	return nil
}

func (b *FileBackend) load() error {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read storage state file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	decoded := make(map[string]map[string]string)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode storage state file: %w", err)
	}
	for scope, kv := range decoded {
		if strings.TrimSpace(scope) == "" || len(kv) == 0 {
			continue
		}
		b.scopes[scope] = kv
	}
	return nil
}

func (b *FileBackend) persistLocked() error {
	out, err := json.MarshalIndent(b.scopes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage state file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("mkdir storage state dir: %w", err)
	}
	if err := os.WriteFile(b.path, out, 0o644); err != nil {
		return fmt.Errorf("write storage state file: %w", err)
	}
	return nil
}
