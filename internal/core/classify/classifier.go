// Package classify counts and collects likely-duplicate record pairs.
package classify

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Cutoff converts a threshold percentage into the fractional score a pair must exceed.
func Cutoff(thresholdPercent float64) float64 {
	return thresholdPercent / 100
}

// PairCount returns n*(n-1)/2, the number of unordered pairs of n records.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Classifier examines every unordered record pair once and flags the pairs
// whose aggregate score is strictly above the threshold.
type Classifier struct {
	scorer  ports.PairScorer
	logger  ports.Logger
	workers int
}

var _ ports.DuplicateClassifier = (*Classifier)(nil)

// New creates a classifier. A nil scorer uses the default-weighted aggregator.
// workers <= 0 means GOMAXPROCS for FindParallel.
func New(scorer ports.PairScorer, logger ports.Logger, workers int) *Classifier {
	if scorer == nil {
		scorer = aggregate.New(nil, nil)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Classifier{
		scorer:  scorer,
		logger:  logger,
		workers: workers,
	}
}

// Count returns the number of pairs (i, j), i < j, with score > thresholdPercent/100.
func (c *Classifier) Count(thresholdPercent float64, records []domain.Record) int {
	cutoff := Cutoff(thresholdPercent)
	count := 0
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if c.scorer.Score(records[i], records[j]) > cutoff {
				count++
			}
		}
	}
	c.debug("Counted duplicates",
		"threshold", thresholdPercent,
		"records", len(records),
		"count", count,
	)
	return count
}

// Find runs the same pass as Count and also returns the flagged pairs.
// Cancellation is checked between rows; a cancelled pass returns ctx.Err().
func (c *Classifier) Find(ctx context.Context, thresholdPercent float64, records []domain.Record) (domain.Result, error) {
	cutoff := Cutoff(thresholdPercent)
	res := domain.Result{Threshold: thresholdPercent}

	for i := 0; i < len(records); i++ {
		if err := ctx.Err(); err != nil {
			c.logError("Duplicate search cancelled", err, i)
			return domain.Result{Threshold: thresholdPercent}, err
		}
		res.PairsExamined += len(records) - i - 1
		res.Pairs = c.scanRow(records, i, cutoff, res.Pairs)
	}
	res.Count = len(res.Pairs)

	c.debug("Found duplicates",
		"threshold", thresholdPercent,
		"records", len(records),
		"pairs_examined", res.PairsExamined,
		"count", res.Count,
	)
	return res, nil
}

// FindParallel spreads rows across workers. The result equals Find's.
func (c *Classifier) FindParallel(ctx context.Context, thresholdPercent float64, records []domain.Record) (domain.Result, error) {
	n := len(records)
	workers := c.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return c.Find(ctx, thresholdPercent, records)
	}

	cutoff := Cutoff(thresholdPercent)
	rows := make(chan int)
	partial := make([][]domain.DuplicatePair, workers)
	examined := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		for i := 0; i < n; i++ {
			select {
			case rows <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range rows {
				if err := gctx.Err(); err != nil {
					return err
				}
				examined[w] += n - i - 1
				partial[w] = c.scanRow(records, i, cutoff, partial[w])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logError("Parallel duplicate search cancelled", err, -1)
		return domain.Result{Threshold: thresholdPercent}, err
	}

	res := domain.Result{Threshold: thresholdPercent}
	for w := range partial {
		res.PairsExamined += examined[w]
		res.Pairs = append(res.Pairs, partial[w]...)
	}
	sort.Slice(res.Pairs, func(a, b int) bool {
		if res.Pairs[a].I != res.Pairs[b].I {
			return res.Pairs[a].I < res.Pairs[b].I
		}
		return res.Pairs[a].J < res.Pairs[b].J
	})
	res.Count = len(res.Pairs)

	c.debug("Found duplicates in parallel",
		"threshold", thresholdPercent,
		"records", n,
		"workers", workers,
		"count", res.Count,
	)
	return res, nil
}

func (c *Classifier) scanRow(records []domain.Record, i int, cutoff float64, out []domain.DuplicatePair) []domain.DuplicatePair {
	for j := i + 1; j < len(records); j++ {
		score := c.scorer.Score(records[i], records[j])
		if score > cutoff {
			out = append(out, domain.DuplicatePair{
				I:     i,
				J:     j,
				IDA:   records[i].ID,
				IDB:   records[j].ID,
				Score: score,
			})
		}
	}
	return out
}

func (c *Classifier) debug(msg string, keysAndValues ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, keysAndValues...)
	}
}

func (c *Classifier) logError(msg string, err error, row int) {
	if c.logger != nil {
		c.logger.Error(msg, "error", err, "row", row)
	}
}
