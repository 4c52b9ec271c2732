package kv

import (
	"context"
	"sync"
	"time"

	"github.com/edukit/eduhub/core"
)

var _ core.KeyValueStore = (*InMemStore)(nil)

// InMemStore is a process-local store for tests and single-node setups.
type InMemStore struct {
	mu      sync.Mutex
	entries map[string]inMemEntry
}

type inMemEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func NewInMemStore() *InMemStore {
	return &InMemStore{entries: make(map[string]inMemEntry)}
}

func (s *InMemStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", core.ErrKeyNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", core.ErrKeyNotFound
	}
	return entry.value, nil
}

func (s *InMemStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := inMemEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *InMemStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
