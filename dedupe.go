// Package dedupe is the function-call interface of the duplicate finder.
//
// Similarity compares two strings, AggregateScore combines per-field
// similarities with weights, and CountDuplicates/FindDuplicates examine every
// unordered record pair once and flag those scoring strictly above
// thresholdPercent/100. For options, templates and debounced recounts use
// the pkg/dedupe package.
package dedupe

import (
	"context"
	"sync"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/classify"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

type (
	// Record is a single contact being deduplicated.
	Record = domain.Record
	// FieldWeight is the contribution of one field to the aggregate score.
	FieldWeight = domain.FieldWeight
	// Weights is an ordered weight set.
	Weights = domain.Weights
	// DuplicatePair is a flagged record pair.
	DuplicatePair = domain.DuplicatePair
	// Result holds the outcome of a duplicate search.
	Result = domain.Result
)

// DefaultWeights returns the 40% name / 60% email split.
func DefaultWeights() Weights { return domain.DefaultWeights() }

var (
	defaultOnce       sync.Once
	defaultClassifier *classify.Classifier
)

// classifier lazily builds the default-weighted classifier and its logger.
func classifier() *classify.Classifier {
	defaultOnce.Do(func() {
		var log ports.Logger
		if lg, err := createDefaultLogger(); err == nil {
			log = logger.FromExisting(lg)
		}
		defaultClassifier = classify.New(nil, log, 1)
	})
	return defaultClassifier
}

// Similarity returns a case-insensitive similarity of a and b in [0, 1]:
// 1 when equal, 0.8 when one contains the other, otherwise the shared share
// of distinct characters. An empty string is contained in every string, so
// Similarity("", "x") is 0.8.
func Similarity(a, b string) float64 {
	return similarity.Similarity(a, b)
}

// AggregateScore returns the weighted sum of the field similarities of r1 and
// r2. nil weights mean DefaultWeights. Weights that do not sum to 1.0 are used
// as given.
func AggregateScore(r1, r2 Record, weights Weights) float64 {
	return aggregate.Score(r1, r2, weights)
}

// CountDuplicates returns how many pairs (i, j), i < j, score strictly above
// thresholdPercent/100 with the default weights.
func CountDuplicates(thresholdPercent float64, records []Record) int {
	return classifier().Count(thresholdPercent, records)
}

// FindDuplicates is CountDuplicates that also returns the flagged pairs.
func FindDuplicates(thresholdPercent float64, records []Record) Result {
	// A background context never ends, so the pass always completes.
	res, _ := classifier().Find(context.Background(), thresholdPercent, records)
	return res
}
