// Package store holds the logic shared by the template store adapters.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

// Prepare validates t and fills in the bookkeeping fields for an upsert.
// When existing is non-nil its ID and CreatedAt are kept; otherwise a new ID
// is assigned and any caller-supplied ID or timestamps are ignored.
func Prepare(t domain.Template, existing *domain.Template, now time.Time) (domain.Template, error) {
	name, err := domain.NormalizeTemplateName(t.Name)
	if err != nil {
		return domain.Template{}, err
	}
	t.Name = name
	if err := t.Validate(); err != nil {
		return domain.Template{}, err
	}

	now = now.UTC()
	if existing != nil {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		t.ID = uuid.NewString()
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t, nil
}

// SortNewestFirst orders templates by creation time, newest first, then by name.
func SortNewestFirst(ts []domain.Template) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].Name < ts[j].Name
	})
}

// Clone returns t with its own copy of the weights map.
func Clone(t domain.Template) domain.Template {
	if t.Weights != nil {
		w := make(map[string]float64, len(t.Weights))
		for k, v := range t.Weights {
			w[k] = v
		}
		t.Weights = w
	}
	return t
}
