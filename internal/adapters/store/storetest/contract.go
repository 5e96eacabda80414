// Package storetest checks that a ports.TemplateStore honours the store contract.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Run exercises a fresh, empty store produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) ports.TemplateStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("put and get", func(t *testing.T) {
		s := newStore(t)
		settings := domain.DefaultNormalizationSettings()
		settings.Email.Enabled = true

		saved, err := s.Put(ctx, domain.Template{
			Name:      "  crm import ",
			Settings:  settings,
			Threshold: 90,
			Weights:   map[string]float64{"name": 0.5, "email": 0.5},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, "crm import", saved.Name)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := s.Get(ctx, "crm import")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, settings, got.Settings)
		assert.Equal(t, 90.0, got.Threshold)
		assert.Equal(t, map[string]float64{"name": 0.5, "email": 0.5}, got.Weights)
	})

	t.Run("put upserts by name", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Put(ctx, domain.Template{Name: "weekly", Threshold: 95})
		require.NoError(t, err)

		second, err := s.Put(ctx, domain.Template{Name: "weekly", Threshold: 85})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 85.0, list[0].Threshold)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"a", "b", "c"} {
			_, err := s.Put(ctx, domain.Template{Name: name})
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "c", list[0].Name)
		assert.Equal(t, "a", list[2].Name)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, domain.Template{Name: "gone"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "gone"))
		_, err = s.Get(ctx, "gone")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "gone"), domain.ErrNotFound)
	})

	t.Run("invalid templates rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, domain.Template{Name: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

		_, err = s.Put(ctx, domain.Template{Name: "bad", Weights: map[string]float64{"name": 2}})
		assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
	})

	t.Run("unknown name", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
