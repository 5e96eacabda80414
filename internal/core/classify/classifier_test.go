package classify

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
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

// Aggregate scores of the sample pairs with the default weights:
//
//	(0,1) 0.4*1 + 0.6*12/13 ~ 0.9538
//	(0,2) 0.4*1 + 0.6*13/16 = 0.8875
//	(1,2) 0.4*1 + 0.6*12/16 = 0.85
//	(1,3) 0.4*4/9 + 0.6*1   ~ 0.7778
//	(0,3) 0.4*4/9 + 0.6*12/13 ~ 0.7316
//	(2,3) 0.4*4/9 + 0.6*12/16 ~ 0.6278
func TestClassifier_CountSampleRecords(t *testing.T) {
	c := New(nil, nil, 1)

	tests := []struct {
		threshold float64
		want      int
	}{
		{threshold: 0, want: 6},
		{threshold: 70, want: 5},
		{threshold: 75, want: 4},
		{threshold: 80, want: 3},
		{threshold: 86, want: 2},
		{threshold: 88, want: 2},
		{threshold: 89, want: 1},
		{threshold: 95, want: 1},
		{threshold: 96, want: 0},
		{threshold: 100, want: 0},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("threshold %.0f", tc.threshold), func(t *testing.T) {
			assert.Equal(t, tc.want, c.Count(tc.threshold, sampleRecords()))
		})
	}
}

func TestClassifier_FindSampleRecords(t *testing.T) {
	c := New(nil, nil, 1)

	res, err := c.Find(context.Background(), 80, sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 80.0, res.Threshold)
	assert.Equal(t, 6, res.PairsExamined)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Pairs, 3)

	assert.Equal(t, [2]int{0, 1}, [2]int{res.Pairs[0].I, res.Pairs[0].J})
	assert.Equal(t, [2]int{0, 2}, [2]int{res.Pairs[1].I, res.Pairs[1].J})
	assert.Equal(t, [2]int{1, 2}, [2]int{res.Pairs[2].I, res.Pairs[2].J})
	assert.Equal(t, "1", res.Pairs[0].IDA)
	assert.Equal(t, "2", res.Pairs[0].IDB)
	assert.InDelta(t, 0.4+0.6*12.0/13.0, res.Pairs[0].Score, 1e-12)
	assert.InDelta(t, 0.8875, res.Pairs[1].Score, 1e-12)
}

func TestClassifier_ThresholdIsStrict(t *testing.T) {
	t.Run("score equal to cutoff is not counted", func(t *testing.T) {
		// name-only weighting with a containment match scores exactly 0.8
		agg := aggregate.New(domain.Weights{{Field: "name", Weight: 1}}, nil)
		c := New(agg, nil, 1)
		records := []domain.Record{{Name: "John"}, {Name: "Johnny"}}

		require.Equal(t, 0.8, agg.Score(records[0], records[1]))
		assert.Equal(t, 0, c.Count(80, records))
		assert.Equal(t, 1, c.Count(79, records))
	})

	t.Run("identical records at 100 are not counted", func(t *testing.T) {
		c := New(nil, nil, 1)
		records := []domain.Record{
			{Name: "Ann", Email: "ann@x.io"},
			{Name: "Ann", Email: "ann@x.io"},
		}
		assert.Equal(t, 0, c.Count(100, records))
		assert.Equal(t, 1, c.Count(99.9, records))
	})
}

func TestClassifier_Monotonic(t *testing.T) {
	c := New(nil, nil, 1)
	records := append(sampleRecords(),
		domain.Record{Name: "J. Smith", Email: "jsmith@example.com"},
		domain.Record{Name: "Janet Doe", Email: "janet.doe@example.org"},
		domain.Record{Name: "", Email: ""},
	)

	prev := c.Count(0, records)
	for threshold := 1; threshold <= 100; threshold++ {
		got := c.Count(float64(threshold), records)
		assert.LessOrEqual(t, got, prev, "threshold %d", threshold)
		prev = got
	}
}

type spyScorer struct {
	mu    sync.Mutex
	seen  map[[2]int]int
	index map[string]int
}

func newSpyScorer(records []domain.Record) *spyScorer {
	s := &spyScorer{seen: map[[2]int]int{}, index: map[string]int{}}
	for i, r := range records {
		s.index[r.ID] = i
	}
	return s
}

func (s *spyScorer) Score(a, b domain.Record) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[[2]int{s.index[a.ID], s.index[b.ID]}]++
	return 0.5
}

func TestClassifier_PairExhaustiveness(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 10, 25} {
		records := make([]domain.Record, n)
		for i := range records {
			records[i] = domain.Record{ID: fmt.Sprintf("r%d", i)}
		}

		run := func(t *testing.T, find func(c *Classifier) (domain.Result, error)) {
			spy := newSpyScorer(records)
			res, err := find(New(spy, nil, 4))
			require.NoError(t, err)

			assert.Equal(t, PairCount(n), res.PairsExamined)
			assert.Len(t, spy.seen, PairCount(n))
			for pair, calls := range spy.seen {
				assert.Less(t, pair[0], pair[1], "pair %v must have i < j", pair)
				assert.Equal(t, 1, calls, "pair %v examined once", pair)
			}
		}

		t.Run(fmt.Sprintf("find n=%d", n), func(t *testing.T) {
			run(t, func(c *Classifier) (domain.Result, error) {
				return c.Find(context.Background(), 50, records)
			})
		})
		t.Run(fmt.Sprintf("parallel n=%d", n), func(t *testing.T) {
			run(t, func(c *Classifier) (domain.Result, error) {
				return c.FindParallel(context.Background(), 50, records)
			})
		})
	}
}

func TestClassifier_FindParallelMatchesFind(t *testing.T) {
	var records []domain.Record
	names := []string{"John Smith", "Jon Smith", "Jane Doe", "J Smith", "Johnny Smith", "Janet"}
	for i := 0; i < 60; i++ {
		name := names[i%len(names)]
		records = append(records, domain.Record{
			ID:    fmt.Sprintf("%d", i),
			Name:  name,
			Email: fmt.Sprintf("%s%d@example.com", name[:3], i%7),
		})
	}

	c := New(nil, nil, 8)
	seq, err := c.Find(context.Background(), 85, records)
	require.NoError(t, err)
	par, err := c.FindParallel(context.Background(), 85, records)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Equal(t, c.Count(85, records), par.Count)
}

func TestClassifier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(nil, nil, 4)
	records := sampleRecords()

	_, err := c.Find(ctx, 80, records)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.FindParallel(ctx, 80, records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPairCount(t *testing.T) {
	assert.Equal(t, 0, PairCount(0))
	assert.Equal(t, 0, PairCount(1))
	assert.Equal(t, 1, PairCount(2))
	assert.Equal(t, 6, PairCount(4))
	assert.Equal(t, 4950, PairCount(100))
}
