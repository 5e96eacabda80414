package ports

import "github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"

// Normalizer defines the interface for text normalization.
type Normalizer interface {
	Normalize(text string) string
}

// RecordNormalizer rewrites a record's fields before scoring.
type RecordNormalizer interface {
	NormalizeRecord(r domain.Record) domain.Record
}
