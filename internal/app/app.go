// Package app wires configuration into stores, loggers and the matcher.
package app

import (
	"fmt"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/normalizer"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/memory"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/sqlite"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/tomlfile"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/config"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

// OpenStore opens the template store selected by cfg.
func OpenStore(cfg config.StoreConfig) (ports.TemplateStore, error) {
	switch cfg.Type {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreTOML, "":
		s, err := tomlfile.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening toml template store: %w", err)
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite template store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Type)
}

// NewLogger creates the logger described by cfg.
func NewLogger(cfg config.LogConfig) (ports.Logger, error) {
	return logger.New(logger.Options{File: cfg.File, JSON: cfg.JSON})
}

// NewMatcher builds a matcher from the matching settings.
func NewMatcher(cfg config.MatchingConfig, store ports.TemplateStore, log ports.Logger) *service.Matcher {
	return service.NewMatcher(service.Options{
		Scorer:  similarity.NewScorer(normalizer.Create(normalizer.ParseType(cfg.Normalizer))),
		Store:   store,
		Logger:  log,
		Workers: cfg.Workers,
		Range:   cfg.ThresholdRange(),
		Weights: cfg.FieldWeights(),
	})
}
