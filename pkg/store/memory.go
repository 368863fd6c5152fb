package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps versions in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]Version
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string][]Version)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, workflow, document string) (Version, error) {
	if workflow == "" {
		return Version{}, ErrEmptyWorkflow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := Version{
		ID:        uuid.NewString(),
		Workflow:  workflow,
		Number:    len(s.versions[workflow]) + 1,
		Document:  document,
		CreatedAt: time.Now().UTC(),
	}
	s.versions[workflow] = append(s.versions[workflow], v)
	return v, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, workflow string, number int) (Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vs := s.versions[workflow]
	if number < 1 || number > len(vs) {
		return Version{}, ErrNotFound
	}
	return vs[number-1], nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(ctx context.Context, workflow string) (Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vs := s.versions[workflow]
	if len(vs) == 0 {
		return Version{}, ErrNotFound
	}
	return vs[len(vs)-1], nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, workflow string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.versions[workflow]), nil
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
