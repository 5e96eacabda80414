// Package dedupe finds likely duplicate contact records.
//
// Two records are compared field by field with a case-insensitive string
// similarity, the field scores are combined with weights (40% name, 60% email
// by default) and a pair is flagged when the total is strictly above the
// threshold percentage divided by 100.
package dedupe

import (
	"context"

	"github.com/baditaflorin/l"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/classify"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/warmup"
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
	// Breakdown is the per-field view of one aggregate score.
	Breakdown = domain.Breakdown
	// Normalizer rewrites field values before they are compared.
	Normalizer = ports.Normalizer
	// WarmUpConfig tunes the warm-up run.
	WarmUpConfig = warmup.Config
)

// DefaultWeights returns the 40% name / 60% email split.
func DefaultWeights() Weights { return domain.DefaultWeights() }

// Deduper scores and classifies contact records.
type Deduper struct {
	scorer     *similarity.Scorer
	aggregator *aggregate.Aggregator
	classifier *classify.Classifier
	logger     ports.Logger
	normalizer ports.Normalizer
	workers    int
	warmed     bool
}

// Option defines a functional option for configuring a Deduper.
type Option func(*dedupeConfig)

type dedupeConfig struct {
	Weights      Weights
	Logger       ports.Logger
	Normalizer   ports.Normalizer
	Workers      int
	WarmUp       bool
	WarmUpConfig warmup.Config
}

// WithWeights sets the field weights. Weights that do not sum to 1.0 are
// logged as a warning and used as given.
func WithWeights(w Weights) Option {
	return func(cfg *dedupeConfig) {
		cfg.Weights = append(Weights(nil), w...)
	}
}

// WithWeightMap sets the field weights from a map, in sorted field order.
func WithWeightMap(m map[string]float64) Option {
	return func(cfg *dedupeConfig) {
		cfg.Weights = domain.WeightsFromMap(m)
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg l.Logger) Option {
	return func(cfg *dedupeConfig) {
		cfg.Logger = logger.FromExisting(lg)
	}
}

// WithNormalizer sets the normalizer applied to every field value before
// comparison. The default lower-cases.
func WithNormalizer(n Normalizer) Option {
	return func(cfg *dedupeConfig) {
		cfg.Normalizer = n
	}
}

// WithWorkers sets how many goroutines Find uses. 1 keeps it sequential.
func WithWorkers(n int) Option {
	return func(cfg *dedupeConfig) {
		cfg.Workers = n
	}
}

// WithWarmUp enables system warm-up on initialization.
func WithWarmUp(enable bool) Option {
	return func(cfg *dedupeConfig) {
		cfg.WarmUp = enable
	}
}

// WithWarmUpConfig sets a custom warm-up configuration.
func WithWarmUpConfig(config WarmUpConfig) Option {
	return func(cfg *dedupeConfig) {
		cfg.WarmUpConfig = config
		cfg.WarmUp = true
	}
}

// New creates a Deduper.
func New(opts ...Option) (*Deduper, error) {
	config := &dedupeConfig{
		Weights:      domain.DefaultWeights(),
		WarmUpConfig: warmup.DefaultConfig(),
	}

	// Apply options
	for _, opt := range opts {
		opt(config)
	}

	// Set up logger if not provided
	if config.Logger == nil {
		var err error
		config.Logger, err = logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
	}

	if err := config.Weights.Validate(); err != nil {
		config.Logger.Warn("Using invalid weights", "error", err, "sum", config.Weights.Sum())
	}

	scorer := similarity.NewScorer(config.Normalizer)
	agg := aggregate.New(config.Weights, scorer)
	d := &Deduper{
		scorer:     scorer,
		aggregator: agg,
		classifier: classify.New(agg, config.Logger, config.Workers),
		logger:     config.Logger,
		normalizer: config.Normalizer,
		workers:    config.Workers,
	}

	// Perform warm-up if configured
	if config.WarmUp {
		d.WarmUp(context.Background(), config.WarmUpConfig)
	}

	return d, nil
}

// Similarity returns the similarity of two strings in [0, 1].
func (d *Deduper) Similarity(a, b string) float64 {
	return d.scorer.Score(a, b)
}

// Score returns the weighted aggregate score of two records.
func (d *Deduper) Score(r1, r2 Record) float64 {
	return d.aggregator.Score(r1, r2)
}

// Breakdown returns the per-field scores behind Score.
func (d *Deduper) Breakdown(r1, r2 Record) Breakdown {
	return d.aggregator.Breakdown(r1, r2)
}

// Weights returns a copy of the weights in use.
func (d *Deduper) Weights() Weights {
	return d.aggregator.Weights()
}

// Count returns how many record pairs score strictly above thresholdPercent/100.
func (d *Deduper) Count(thresholdPercent float64, records []Record) int {
	return d.classifier.Count(thresholdPercent, records)
}

// Find returns the flagged pairs. It stops early with ctx.Err() when ctx ends.
func (d *Deduper) Find(ctx context.Context, thresholdPercent float64, records []Record) (Result, error) {
	if d.workers == 1 {
		return d.classifier.Find(ctx, thresholdPercent, records)
	}
	return d.classifier.FindParallel(ctx, thresholdPercent, records)
}

// WarmUp performs system warm-up to optimize performance.
func (d *Deduper) WarmUp(ctx context.Context, config WarmUpConfig) {
	if d.warmed {
		d.logger.Debug("System already warmed up, skipping")
		return
	}

	warmupMgr := warmup.NewManager(d.logger, config)
	warmupMgr.RegisterScorer(d.scorer)
	warmupMgr.RegisterPairScorer(d.aggregator)
	if d.normalizer != nil {
		warmupMgr.RegisterNormalizer(d.normalizer)
	}

	warmupMgr.WarmUp(ctx)
	d.warmed = true
}

// Close flushes and closes the logger.
func (d *Deduper) Close() error {
	return d.logger.Close()
}
