package ports

import (
	"context"
	"io"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

// TemplateStore persists named cleaning templates.
// Put upserts by name; Get and Delete return domain.ErrNotFound for unknown names.
type TemplateStore interface {
	List(ctx context.Context) ([]domain.Template, error)
	Get(ctx context.Context, name string) (*domain.Template, error)
	Put(ctx context.Context, t domain.Template) (*domain.Template, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// RecordSource decodes a record set from a stream.
type RecordSource interface {
	Decode(r io.Reader) ([]domain.Record, error)
}
