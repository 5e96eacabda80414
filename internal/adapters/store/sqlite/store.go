// Package sqlite stores templates in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/sqlite/migrations"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultFileName is used when the store is given a directory.
const DefaultFileName = "templates.db"

// Store is a SQLite-backed ports.TemplateStore.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ ports.TemplateStore = (*Store)(nil)

// NewStore opens (or creates) the database. A path not ending in ".db" is
// treated as a directory; "" means ~/.dedupe.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".dedupe")
	}
	if !strings.HasSuffix(path, ".db") {
		path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

const selectColumns = `SELECT id, name, settings, threshold, weights, created_at, updated_at FROM templates`

// List returns all templates, newest first.
func (s *Store) List(ctx context.Context) ([]domain.Template, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return out, nil
}

// Get returns the template with the given name.
func (s *Store) Get(ctx context.Context, name string) (*domain.Template, error) {
	return s.get(ctx, s.db, strings.TrimSpace(name))
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, q queryer, name string) (*domain.Template, error) {
	t, err := scanTemplate(q.QueryRowContext(ctx, selectColumns+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

// Put inserts or replaces the template with t.Name.
func (s *Store) Put(ctx context.Context, t domain.Template) (*domain.Template, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.get(ctx, tx, strings.TrimSpace(t.Name))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	prepared, err := store.Prepare(store.Clone(t), existing, s.now())
	if err != nil {
		return nil, err
	}

	settingsJSON, err := json.Marshal(prepared.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	var weightsJSON sql.NullString
	if len(prepared.Weights) > 0 {
		raw, err := json.Marshal(prepared.Weights)
		if err != nil {
			return nil, fmt.Errorf("marshalling weights: %w", err)
		}
		weightsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (id, name, settings, threshold, weights, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			settings = excluded.settings,
			threshold = excluded.threshold,
			weights = excluded.weights,
			updated_at = excluded.updated_at
	`, prepared.ID, prepared.Name, string(settingsJSON), prepared.Threshold, weightsJSON,
		prepared.CreatedAt.Format(timeLayout), prepared.UpdatedAt.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("saving template: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing template: %w", err)
	}
	return &prepared, nil
}

// Delete removes the template with the given name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*domain.Template, error) {
	var (
		t                    domain.Template
		settingsJSON         string
		weightsJSON          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&t.ID, &t.Name, &settingsJSON, &t.Threshold, &weightsJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}

	if err := json.Unmarshal([]byte(settingsJSON), &t.Settings); err != nil {
		return nil, fmt.Errorf("unmarshalling settings: %w", err)
	}
	if weightsJSON.Valid && weightsJSON.String != "" {
		if err := json.Unmarshal([]byte(weightsJSON.String), &t.Weights); err != nil {
			return nil, fmt.Errorf("unmarshalling weights: %w", err)
		}
	}

	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}
