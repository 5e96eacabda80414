// Package memory is an in-process template store, used by tests and as the
// server default when no file or database is configured.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Store is a thread-safe map of templates keyed by name.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.Template
	now  func() time.Time
}

var _ ports.TemplateStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Template),
		now:  time.Now,
	}
}

// List returns all templates, newest first.
func (s *Store) List(ctx context.Context) ([]domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Template, 0, len(s.data))
	for _, t := range s.data {
		out = append(out, store.Clone(t))
	}
	store.SortNewestFirst(out)
	return out, nil
}

// Get returns the template with the given name.
func (s *Store) Get(ctx context.Context, name string) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[strings.TrimSpace(name)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t = store.Clone(t)
	return &t, nil
}

// Put inserts or replaces the template with t.Name.
func (s *Store) Put(ctx context.Context, t domain.Template) (*domain.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *domain.Template
	if old, ok := s.data[strings.TrimSpace(t.Name)]; ok {
		existing = &old
	}
	prepared, err := store.Prepare(store.Clone(t), existing, s.now())
	if err != nil {
		return nil, err
	}
	s.data[prepared.Name] = prepared

	out := store.Clone(prepared)
	return &out, nil
}

// Delete removes the template with the given name.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if _, ok := s.data[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.data, name)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Size returns the number of stored templates.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
