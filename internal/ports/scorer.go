package ports

import (
	"context"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

// SimilarityScorer computes a normalized similarity in [0,1] between two strings.
type SimilarityScorer interface {
	Score(a, b string) float64
}

// PairScorer computes the aggregate match score of two records.
type PairScorer interface {
	Score(a, b domain.Record) float64
}

// DuplicateClassifier flags record pairs whose aggregate score exceeds a threshold.
type DuplicateClassifier interface {
	Count(thresholdPercent float64, records []domain.Record) int
	Find(ctx context.Context, thresholdPercent float64, records []domain.Record) (domain.Result, error)
}
