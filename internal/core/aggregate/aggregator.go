// Package aggregate combines per-field similarities into one weighted match score.
package aggregate

import (
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Aggregator scores record pairs as the weighted sum of field similarities.
type Aggregator struct {
	weights domain.Weights
	scorer  ports.SimilarityScorer
}

var _ ports.PairScorer = (*Aggregator)(nil)

// New creates an aggregator. Empty weights fall back to domain.DefaultWeights and a
// nil scorer to the lower-casing similarity scorer.
//
// Weights are not validated here: a set that does not sum to 1 skews the score
// but never fails. Use Weights.Validate to check beforehand.
func New(weights domain.Weights, scorer ports.SimilarityScorer) *Aggregator {
	if len(weights) == 0 {
		weights = domain.DefaultWeights()
	}
	if scorer == nil {
		scorer = similarity.NewScorer(nil)
	}
	w := make(domain.Weights, len(weights))
	copy(w, weights)
	return &Aggregator{weights: w, scorer: scorer}
}

// Weights returns a copy of the configured weights.
func (a *Aggregator) Weights() domain.Weights {
	w := make(domain.Weights, len(a.weights))
	copy(w, a.weights)
	return w
}

// Score returns the aggregate match score of two records, summed in weight order.
func (a *Aggregator) Score(r1, r2 domain.Record) float64 {
	var total float64
	for _, fw := range a.weights {
		total += a.scorer.Score(r1.Field(fw.Field), r2.Field(fw.Field)) * fw.Weight
	}
	return total
}

// Breakdown returns the per-field similarities behind Score.
func (a *Aggregator) Breakdown(r1, r2 domain.Record) domain.Breakdown {
	b := domain.Breakdown{Fields: make([]domain.FieldScore, 0, len(a.weights))}
	for _, fw := range a.weights {
		sim := a.scorer.Score(r1.Field(fw.Field), r2.Field(fw.Field))
		contribution := sim * fw.Weight
		b.Fields = append(b.Fields, domain.FieldScore{
			Field:        fw.Field,
			Similarity:   sim,
			Weight:       fw.Weight,
			Contribution: contribution,
		})
		b.Total += contribution
	}
	return b
}

// Score computes the aggregate of two records with the given weights and the default scorer.
func Score(r1, r2 domain.Record, weights domain.Weights) float64 {
	return New(weights, nil).Score(r1, r2)
}
