// Package service resolves thresholds, weights and templates for a request
// and runs the scoring core. The HTTP API and the CLI share it.
package service

import (
	"context"
	"fmt"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/normalizer"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/classify"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Options configures a Matcher. Zero values fall back to the defaults.
type Options struct {
	Scorer  ports.SimilarityScorer
	Store   ports.TemplateStore
	Logger  ports.Logger
	Workers int
	Range   domain.ThresholdRange
	Weights domain.Weights
}

// Matcher runs duplicate searches on behalf of the outer layers.
type Matcher struct {
	scorer  ports.SimilarityScorer
	store   ports.TemplateStore
	logger  ports.Logger
	workers int
	rng     domain.ThresholdRange
	weights domain.Weights
}

// NewMatcher creates a matcher.
func NewMatcher(opts Options) *Matcher {
	m := &Matcher{
		scorer:  opts.Scorer,
		store:   opts.Store,
		logger:  opts.Logger,
		workers: opts.Workers,
		rng:     opts.Range,
		weights: opts.Weights,
	}
	if m.scorer == nil {
		m.scorer = similarity.NewScorer(nil)
	}
	if m.rng == (domain.ThresholdRange{}) {
		m.rng = domain.DefaultThresholdRange()
	}
	if len(m.weights) == 0 {
		m.weights = domain.DefaultWeights()
	}
	return m
}

// Range returns the threshold bounds.
func (m *Matcher) Range() domain.ThresholdRange { return m.rng }

// Store returns the template store, which may be nil.
func (m *Matcher) Store() ports.TemplateStore { return m.store }

// Request describes one duplicate search.
type Request struct {
	// Threshold in percent; nil means the template's or the default.
	Threshold *float64
	Records   []domain.Record
	// Weights override the template's and the default weights.
	Weights map[string]float64
	// Template names a stored cleaning template to apply first.
	Template     string
	IncludePairs bool
}

// Plan is the resolved configuration of a request.
type Plan struct {
	Threshold  float64
	Clamped    bool
	Advisory   string
	Weights    domain.Weights
	Normalizer ports.RecordNormalizer
	Template   *domain.Template
}

// Outcome is the result of a duplicate search plus how it was configured.
type Outcome struct {
	domain.Result
	Clamped  bool   `json:"clamped,omitempty"`
	Advisory string `json:"advisory,omitempty"`
	Template string `json:"template,omitempty"`
}

// Resolve picks threshold, weights and normalizer for a request.
// Request values win over template values, which win over the defaults.
func (m *Matcher) Resolve(ctx context.Context, threshold *float64, weights map[string]float64, template string) (Plan, error) {
	var plan Plan

	if template != "" {
		if m.store == nil {
			return plan, fmt.Errorf("template %q: %w", template, domain.ErrNotFound)
		}
		t, err := m.store.Get(ctx, template)
		if err != nil {
			return plan, fmt.Errorf("template %q: %w", template, err)
		}
		plan.Template = t
		plan.Normalizer = normalizer.NewContactNormalizer(t.Settings)
	}

	switch {
	case len(weights) > 0:
		plan.Weights = domain.WeightsFromMap(weights)
	case plan.Template != nil && len(plan.Template.Weights) > 0:
		plan.Weights = domain.WeightsFromMap(plan.Template.Weights)
	default:
		plan.Weights = append(domain.Weights(nil), m.weights...)
	}
	if err := plan.Weights.Validate(); err != nil {
		return plan, err
	}

	t := m.rng.Default
	switch {
	case threshold != nil:
		t = *threshold
	case plan.Template != nil && plan.Template.Threshold > 0:
		t = plan.Template.Threshold
	}
	plan.Threshold = m.rng.Clamp(t)
	plan.Clamped = plan.Threshold != t
	plan.Advisory = m.rng.Advisory(plan.Threshold)
	return plan, nil
}

// Apply normalizes records with the plan's template, if any.
func (p Plan) Apply(records []domain.Record) []domain.Record {
	if p.Normalizer == nil {
		return records
	}
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = p.Normalizer.NormalizeRecord(r)
	}
	return out
}

// Duplicates resolves req and runs the classifier over its records.
func (m *Matcher) Duplicates(ctx context.Context, req Request) (Outcome, error) {
	plan, err := m.Resolve(ctx, req.Threshold, req.Weights, req.Template)
	if err != nil {
		return Outcome{}, err
	}

	c := classify.New(aggregate.New(plan.Weights, m.scorer), m.logger, m.workers)
	res, err := c.FindParallel(ctx, plan.Threshold, plan.Apply(req.Records))
	if err != nil {
		return Outcome{}, err
	}
	if !req.IncludePairs {
		res.Pairs = nil
	}

	out := Outcome{Result: res, Clamped: plan.Clamped, Advisory: plan.Advisory}
	if plan.Template != nil {
		out.Template = plan.Template.Name
	}
	if m.logger != nil && plan.Advisory != "" {
		m.logger.Warn("Low duplicate threshold", "threshold", plan.Threshold, "advisory", plan.Advisory)
	}
	return out, nil
}

// Similarity scores two strings with the configured field scorer.
func (m *Matcher) Similarity(a, b string) float64 {
	return m.scorer.Score(a, b)
}

// Breakdown scores one record pair field by field.
func (m *Matcher) Breakdown(ctx context.Context, a, b domain.Record, weights map[string]float64, template string) (domain.Breakdown, error) {
	plan, err := m.Resolve(ctx, nil, weights, template)
	if err != nil {
		return domain.Breakdown{}, err
	}
	records := plan.Apply([]domain.Record{a, b})
	return aggregate.New(plan.Weights, m.scorer).Breakdown(records[0], records[1]), nil
}
