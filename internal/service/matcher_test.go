package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/memory"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{ID: "1", Name: "John Smith", Email: "john@example.com"},
		{ID: "2", Name: "Jon Smith", Email: "jon@example.com"},
		{ID: "3", Name: "John Smith", Email: "johnsmith@example.com"},
		{ID: "4", Name: "Jane Doe", Email: "jane@example.com"},
	}
}

func ptr(f float64) *float64 { return &f }

func TestMatcher_Duplicates(t *testing.T) {
	m := NewMatcher(Options{})
	ctx := context.Background()

	t.Run("default threshold", func(t *testing.T) {
		out, err := m.Duplicates(ctx, Request{Records: sampleRecords()})
		require.NoError(t, err)
		assert.Equal(t, 95.0, out.Threshold)
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, 6, out.PairsExamined)
		assert.Nil(t, out.Pairs)
		assert.Empty(t, out.Advisory)
		assert.False(t, out.Clamped)
	})

	t.Run("threshold below range is clamped with advisory", func(t *testing.T) {
		out, err := m.Duplicates(ctx, Request{Threshold: ptr(50), Records: sampleRecords(), IncludePairs: true})
		require.NoError(t, err)
		assert.Equal(t, 80.0, out.Threshold)
		assert.True(t, out.Clamped)
		assert.Equal(t, 3, out.Count)
		assert.Len(t, out.Pairs, 3)
		assert.Contains(t, out.Advisory, "false positives")
	})

	t.Run("threshold above range is clamped", func(t *testing.T) {
		out, err := m.Duplicates(ctx, Request{Threshold: ptr(99), Records: sampleRecords()})
		require.NoError(t, err)
		assert.Equal(t, 95.0, out.Threshold)
		assert.True(t, out.Clamped)
	})

	t.Run("invalid weights", func(t *testing.T) {
		_, err := m.Duplicates(ctx, Request{Records: sampleRecords(), Weights: map[string]float64{"name": 2}})
		assert.ErrorIs(t, err, domain.ErrInvalidWeights)
	})
}

func TestMatcher_Template(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	settings := domain.DefaultNormalizationSettings()
	settings.Name.Enabled = true
	settings.Name.RemoveMiddleName = true
	_, err := store.Put(ctx, domain.Template{
		Name:      "names only",
		Settings:  settings,
		Threshold: 90,
		Weights:   map[string]float64{"name": 1},
	})
	require.NoError(t, err)

	m := NewMatcher(Options{Store: store})

	records := []domain.Record{
		{Name: "Mary Ann Oneil", Email: "a@x.io"},
		{Name: "mary oneil", Email: "zzz@q.org"},
	}

	out, err := m.Duplicates(ctx, Request{Records: records, Template: "names only"})
	require.NoError(t, err)
	assert.Equal(t, "names only", out.Template)
	assert.Equal(t, 90.0, out.Threshold)
	assert.Equal(t, 1, out.Count)

	out, err = m.Duplicates(ctx, Request{Records: records, Template: "names only", Threshold: ptr(85)})
	require.NoError(t, err)
	assert.Equal(t, 85.0, out.Threshold)

	_, err = m.Duplicates(ctx, Request{Records: records, Template: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = NewMatcher(Options{}).Duplicates(ctx, Request{Records: records, Template: "names only"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatcher_Breakdown(t *testing.T) {
	m := NewMatcher(Options{})
	a := domain.Record{Name: "John Smith", Email: "john@example.com"}
	b := domain.Record{Name: "John Smith", Email: "johnsmith@example.com"}

	bd, err := m.Breakdown(context.Background(), a, b, nil, "")
	require.NoError(t, err)
	require.Len(t, bd.Fields, 2)
	assert.InDelta(t, 0.8875, bd.Total, 1e-12)

	_, err = m.Breakdown(context.Background(), a, b, map[string]float64{"name": 0.2}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidWeights)
}

func TestMatcher_Similarity(t *testing.T) {
	m := NewMatcher(Options{})
	assert.Equal(t, 1.0, m.Similarity("ABC", "abc"))
	assert.Equal(t, 0.8, m.Similarity("", "abc"))
}
