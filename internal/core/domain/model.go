package domain

import (
	"math"
	"sort"
	"strings"
)

// Field names understood by Record.Field without consulting Fields.
const (
	FieldName  = "name"
	FieldEmail = "email"
)

// Record is a single contact being deduplicated.
type Record struct {
	ID     string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string            `json:"name" yaml:"name"`
	Email  string            `json:"email" yaml:"email"`
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field returns the value of the named field, or "" when the record has none.
func (r Record) Field(name string) string {
	switch strings.ToLower(name) {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	}
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// FieldWeight is the contribution of one field to the aggregate score.
type FieldWeight struct {
	Field  string  `json:"field" yaml:"field" toml:"field"`
	Weight float64 `json:"weight" yaml:"weight" toml:"weight"`
}

// Weights is an ordered weight set. Order fixes the summation order of the aggregate.
type Weights []FieldWeight

// WeightTolerance is how far a weight sum may drift from 1.0 and still be valid.
const WeightTolerance = 0.001

// DefaultWeights returns the 40% name / 60% email split.
func DefaultWeights() Weights {
	return Weights{
		{Field: FieldName, Weight: 0.4},
		{Field: FieldEmail, Weight: 0.6},
	}
}

// WeightsFromMap builds a weight set with keys in sorted order.
// A nil or empty map yields DefaultWeights.
func WeightsFromMap(m map[string]float64) Weights {
	if len(m) == 0 {
		return DefaultWeights()
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := make(Weights, 0, len(keys))
	for _, k := range keys {
		w = append(w, FieldWeight{Field: k, Weight: m[k]})
	}
	return w
}

// Map returns the weight set as a field -> weight map.
func (w Weights) Map() map[string]float64 {
	m := make(map[string]float64, len(w))
	for _, fw := range w {
		m[fw.Field] += fw.Weight
	}
	return m
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, fw := range w {
		total += fw.Weight
	}
	return total
}

// Validate checks that no weight is negative and that the weights sum to 1.0.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return invalidWeights("no fields weighted")
	}
	for _, fw := range w {
		if fw.Weight < 0 || math.IsNaN(fw.Weight) {
			return invalidWeights("negative weight for field " + fw.Field)
		}
	}
	if math.Abs(w.Sum()-1.0) > WeightTolerance {
		return invalidWeights("weights must sum to 1.0")
	}
	return nil
}

// DuplicatePair is a record pair whose aggregate score exceeded the threshold.
type DuplicatePair struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	IDA   string  `json:"id_a,omitempty"`
	IDB   string  `json:"id_b,omitempty"`
	Score float64 `json:"score"`
}

// Result holds the outcome of a duplicate classification pass.
type Result struct {
	// Threshold is the percentage the pass was run with.
	Threshold float64 `json:"threshold"`
	// PairsExamined is N*(N-1)/2 for a completed pass.
	PairsExamined int `json:"pairs_examined"`
	// Count is the number of pairs strictly above Threshold/100.
	Count int `json:"count"`
	// Pairs holds the flagged pairs in (i, j) order.
	Pairs []DuplicatePair `json:"pairs,omitempty"`
}

// Breakdown is the per-field view of a single aggregate score.
type Breakdown struct {
	Fields []FieldScore `json:"fields"`
	Total  float64      `json:"total"`
}

// FieldScore is the similarity of one field and its weighted contribution.
type FieldScore struct {
	Field        string  `json:"field"`
	Similarity   float64 `json:"similarity"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}
