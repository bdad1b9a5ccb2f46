package memory

import (
	"context"
	"sync"

	"myexpenses/internal/storage"
)

// Store is a process-local storage.KV. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	items map[string]string
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]string)}
}

// NewWith returns a store pre-populated with seed.
func NewWith(seed map[string]string) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = v
	}
	return s
}

// Get implements storage.KV.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// Set implements storage.KV.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}
