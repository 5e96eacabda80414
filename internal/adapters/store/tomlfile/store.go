// Package tomlfile keeps templates in a single TOML file, for the CLI and
// single-node servers.
package tomlfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// DefaultFileName is used when the store is given a directory.
const DefaultFileName = "templates.toml"

type fileData struct {
	Templates []domain.Template `toml:"templates"`
}

// Store is a file-backed ports.TemplateStore. Every write rewrites the file atomically.
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]domain.Template
	now      func() time.Time
}

var _ ports.TemplateStore = (*Store)(nil)

// NewStore opens the store at path. A directory path (or "") gets DefaultFileName;
// "" means ~/.dedupe. A missing file is created on first write.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".dedupe")
	}
	if !strings.HasSuffix(path, ".toml") {
		path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating template directory: %w", err)
	}

	s := &Store{
		filePath: path,
		data:     make(map[string]domain.Template),
		now:      time.Now,
	}
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Path returns the TOML file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load replaces the in-memory state with the file contents.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var fd fileData
	if err := toml.Unmarshal(raw, &fd); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	data := make(map[string]domain.Template, len(fd.Templates))
	for _, t := range fd.Templates {
		data[t.Name] = t
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// List returns all templates, newest first.
func (s *Store) List(ctx context.Context) ([]domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
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

// Put inserts or replaces the template with t.Name and persists the file.
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

	previous, hadPrevious := s.data[prepared.Name]
	s.data[prepared.Name] = prepared
	if err := s.saveLocked(); err != nil {
		if hadPrevious {
			s.data[prepared.Name] = previous
		} else {
			delete(s.data, prepared.Name)
		}
		return nil, err
	}
	out := store.Clone(prepared)
	return &out, nil
}

// Delete removes the template with the given name and persists the file.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	old, ok := s.data[name]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.data, name)
	if err := s.saveLocked(); err != nil {
		s.data[name] = old
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (s *Store) Close() error { return nil }

// Watch reloads the store whenever the file is changed by another process,
// until ctx is done. onReload, if set, is called after every reload attempt.
func (s *Store) Watch(ctx context.Context, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: atomic rewrites replace the file, dropping a file watch.
	if err := w.Add(filepath.Dir(s.filePath)); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.filePath), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.filePath) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				err := s.Load()
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if onReload != nil {
					onReload(err)
				}
			}
		}
	}()
	return nil
}

func (s *Store) sortedLocked() []domain.Template {
	out := make([]domain.Template, 0, len(s.data))
	for _, t := range s.data {
		out = append(out, store.Clone(t))
	}
	store.SortNewestFirst(out)
	return out
}

func (s *Store) saveLocked() error {
	raw, err := toml.Marshal(fileData{Templates: s.sortedLocked()})
	if err != nil {
		return fmt.Errorf("encoding templates: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".templates-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", s.filePath, err)
	}
	return nil
}
