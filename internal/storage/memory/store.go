package memory

import (
	"context"
	"sync"

	"github.com/yndnr/tokvault-go/internal/storage"
)

// Store keeps blobs in a map.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	v, ok := s.data[string(key)]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Sync is a no-op.
func (s *Store) Sync(context.Context) error {
	return nil
}

// Close discards the contents.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}
