package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is the key-value area of a single browser. It holds at most one user
// record under Key.
type Store interface {
	Get(ctx context.Context) (User, error)
	Set(ctx context.Context, u User) error
	Clear(ctx context.Context) error
}

// Backend is raw byte storage partitioned by scope. Read returns
// ErrKeyNotFound for missing keys; Delete of a missing key is not an error.
type Backend interface {
	Read(ctx context.Context, scope, key string) ([]byte, error)
	Write(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}

type scopedStore struct {
	backend Backend
	scope   string
}

// NewStore binds backend to one browser scope.
func NewStore(backend Backend, scope string) (Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, fmt.Errorf("storage scope is required")
	}
	return &scopedStore{backend: backend, scope: scope}, nil
}

func (s *scopedStore) Get(ctx context.Context) (User, error) {
	b, err := s.backend.Read(ctx, s.scope, Key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return User{}, ErrNoSession
		}
		return User{}, fmt.Errorf("read %s: %w", Key, err)
	}
	return Decode(b)
}

func (s *scopedStore) Set(ctx context.Context, u User) error {
	b, err := Encode(u)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, s.scope, Key, b); err != nil {
		return fmt.Errorf("write %s: %w", Key, err)
	}
	return nil
}

func (s *scopedStore) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.scope, Key); err != nil {
		return fmt.Errorf("delete %s: %w", Key, err)
	}
	return nil
}
