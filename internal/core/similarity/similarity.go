// Package similarity scores how alike two strings are on a [0,1] scale.
//
// The score is 1 for strings equal after lower-casing, 0.8 when one contains
// the other, and otherwise the size of the shared unique-rune set divided by
// the size of the larger unique-rune set.
package similarity

import (
	"strings"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/pool"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Fixed scores for the two shortcut cases.
const (
	ExactScore       = 1.0
	ContainmentScore = 0.8
)

// Similarity lower-cases a and b and scores them.
//
// The empty string is a substring of every string, so comparing "" with any
// non-empty string returns ContainmentScore rather than 0. Callers that treat
// a blank field as "unknown" need to handle that before scoring.
func Similarity(a, b string) float64 {
	return compare(strings.ToLower(a), strings.ToLower(b), pool.Default)
}

func compare(s1, s2 string, p *pool.RuneSetPool) float64 {
	if s1 == s2 {
		return ExactScore
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return ContainmentScore
	}

	set1 := p.Get()
	defer p.Put(set1)
	set2 := p.Get()
	defer p.Put(set2)
	set1.Add(s1)
	set2.Add(s2)

	small, large := set1, set2
	if small.Len() > large.Len() {
		small, large = large, small
	}
	common := 0
	small.Each(func(r rune) {
		if large.Has(r) {
			common++
		}
	})

	denom := large.Len()
	if denom == 0 {
		return ExactScore
	}
	return float64(common) / float64(denom)
}

// Scorer implements ports.SimilarityScorer on top of a pluggable normalizer.
type Scorer struct {
	normalizer ports.Normalizer
	pool       *pool.RuneSetPool
}

var _ ports.SimilarityScorer = (*Scorer)(nil)

type lowercase struct{}

func (lowercase) Normalize(text string) string { return strings.ToLower(text) }

// NewScorer creates a scorer. A nil normalizer lower-cases, which matches Similarity.
// A custom normalizer replaces lower-casing entirely.
func NewScorer(normalizer ports.Normalizer) *Scorer {
	if normalizer == nil {
		normalizer = lowercase{}
	}
	return &Scorer{
		normalizer: normalizer,
		pool:       pool.Default,
	}
}

// Score normalizes both strings and returns their similarity.
func (s *Scorer) Score(a, b string) float64 {
	return compare(s.normalizer.Normalize(a), s.normalizer.Normalize(b), s.pool)
}
