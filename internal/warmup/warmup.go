// Package warmup exercises scorers and normalizers before the first request,
// so pools and code paths are hot when real traffic arrives.
package warmup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Config defines configuration for warming up the system
type Config struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Number of synthetic records used for pair scoring
	SampleRecords int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultConfig returns the default warmup configuration
func DefaultConfig() Config {
	return Config{
		Concurrency:   runtime.NumCPU(),
		Iterations:    1000,
		SampleRecords: 32,
		Duration:      2 * time.Second,
		ForceGC:       true,
	}
}

// Stats reports what a warmup run did.
type Stats struct {
	Components int
	Calls      int64
	Duration   time.Duration
	TimedOut   bool
}

// Manager handles system warmup operations
type Manager struct {
	logger            ports.Logger
	scorers           []ports.SimilarityScorer
	pairScorers       []ports.PairScorer
	normalizers       []ports.Normalizer
	recordNormalizers []ports.RecordNormalizer
	config            Config
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config Config) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.SampleRecords < 2 {
		config.SampleRecords = 2
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterScorer adds a field scorer to be warmed up
func (wm *Manager) RegisterScorer(s ports.SimilarityScorer) {
	wm.scorers = append(wm.scorers, s)
}

// RegisterPairScorer adds a record pair scorer to be warmed up
func (wm *Manager) RegisterPairScorer(s ports.PairScorer) {
	wm.pairScorers = append(wm.pairScorers, s)
}

// RegisterNormalizer adds a normalizer to be warmed up
func (wm *Manager) RegisterNormalizer(norm ports.Normalizer) {
	wm.normalizers = append(wm.normalizers, norm)
}

// RegisterRecordNormalizer adds a record normalizer to be warmed up
func (wm *Manager) RegisterRecordNormalizer(norm ports.RecordNormalizer) {
	wm.recordNormalizers = append(wm.recordNormalizers, norm)
}

func (wm *Manager) components() int {
	return len(wm.scorers) + len(wm.pairScorers) + len(wm.normalizers) + len(wm.recordNormalizers)
}

// WarmUp runs the warmup process for all registered components
func (wm *Manager) WarmUp(ctx context.Context) Stats {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", wm.components(),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	// Create a context with timeout if duration is specified
	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	records := generateSampleRecords(wm.config.SampleRecords)
	var calls int64
	calls += wm.run(warmupCtx, "normalizers", len(wm.normalizers)+len(wm.recordNormalizers), func(j int) int {
		r := records[j%len(records)]
		for _, n := range wm.normalizers {
			_ = n.Normalize(r.Name)
		}
		for _, n := range wm.recordNormalizers {
			_ = n.NormalizeRecord(r)
		}
		return len(wm.normalizers) + len(wm.recordNormalizers)
	})
	calls += wm.run(warmupCtx, "scorers", len(wm.scorers)+len(wm.pairScorers), func(j int) int {
		a := records[j%len(records)]
		b := records[(j+1)%len(records)]
		for _, s := range wm.scorers {
			_ = s.Score(a.Name, b.Name)
			_ = s.Score(a.Email, b.Email)
		}
		for _, s := range wm.pairScorers {
			_ = s.Score(a, b)
		}
		return 2*len(wm.scorers) + len(wm.pairScorers)
	})

	// Force garbage collection if configured
	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	stats := Stats{
		Components: wm.components(),
		Calls:      calls,
		Duration:   time.Since(startTime),
		TimedOut:   warmupCtx.Err() != nil && ctx.Err() == nil,
	}
	wm.logger.Info("System warmup completed",
		"duration", stats.Duration,
		"calls", stats.Calls,
		"timed_out", stats.TimedOut,
	)
	return stats
}

// run spreads Iterations calls of step over Concurrency goroutines until done
// or ctx ends. step returns how many component calls it made.
func (wm *Manager) run(ctx context.Context, kind string, count int, step func(j int) int) int64 {
	if count == 0 {
		return 0
	}
	wm.logger.Debug("Warming up "+kind, "count", count)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func(routineID int) {
			defer wg.Done()

			var local int64
			for j := 0; j < wm.config.Iterations; j++ {
				if ctx.Err() != nil {
					break
				}
				local += int64(step(routineID + j))
			}

			mu.Lock()
			total += local
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	return total
}

// generateSampleRecords creates n contact records with overlapping names and emails.
func generateSampleRecords(n int) []domain.Record {
	first := []string{"John", "Jon", "Jane", "Janet", "Mary", "Marie", "Peter", "Pete"}
	last := []string{"Smith", "Smyth", "Doe", "Dough", "Oneil", "Miller"}
	domains := []string{"example.com", "example.org", "mail.test"}

	records := make([]domain.Record, n)
	for i := range records {
		f := first[i%len(first)]
		l := last[(i/2)%len(last)]
		records[i] = domain.Record{
			ID:    fmt.Sprintf("warmup-%d", i),
			Name:  f + " " + l,
			Email: strings.ToLower(f+"."+l) + "@" + domains[i%len(domains)],
		}
	}
	return records
}
