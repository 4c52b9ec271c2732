package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
)

var ErrNotFound = errors.New("object not found")

var _ core.BlobStore = (*InMemStore)(nil)

// InMemStore keeps objects in memory for tests and the DEV fallback.
type InMemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemStore() *InMemStore {
	return &InMemStore{objects: make(map[string][]byte)}
}

func (s *InMemStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *InMemStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (s *InMemStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *InMemStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("mem://%s", key), nil
}
