package session

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu     sync.RWMutex
	scopes map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{scopes: make(map[string]map[string][]byte)}
}

func (b *MemoryBackend) Read(_ context.Context, scope, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.scopes[scope][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Write(_ context.Context, scope, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kv, ok := b.scopes[scope]
	if !ok {
		kv = make(map[string][]byte)
		b.scopes[scope] = kv
	}
	kv[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, scope, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kv, ok := b.scopes[scope]
	if !ok {
		return nil
	}
	delete(kv, key)
	if len(kv) == 0 {
		delete(b.scopes, scope)
	}
	return nil
}
