package normalizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// ContactNormalizer applies the email and name toggles of a template to records.
// Phone, company and job title settings have no matching record field and are ignored.
type ContactNormalizer struct {
	settings domain.NormalizationSettings
}

var _ ports.RecordNormalizer = (*ContactNormalizer)(nil)

// NewContactNormalizer creates a record normalizer for the given settings.
func NewContactNormalizer(settings domain.NormalizationSettings) *ContactNormalizer {
	return &ContactNormalizer{settings: settings}
}

// NormalizeRecord returns a copy of r with the enabled settings applied.
func (n *ContactNormalizer) NormalizeRecord(r domain.Record) domain.Record {
	if s := n.settings.Email; s.Enabled {
		if s.TrimWhitespace {
			r.Email = strings.TrimSpace(r.Email)
		}
		if s.Lowercase {
			r.Email = strings.ToLower(r.Email)
		}
	}
	if s := n.settings.Name; s.Enabled {
		if s.TrimWhitespace {
			r.Name = strings.Join(strings.Fields(r.Name), " ")
		}
		if s.RemoveMiddleName {
			if parts := strings.Fields(r.Name); len(parts) > 2 {
				r.Name = parts[0] + " " + parts[len(parts)-1]
			}
		}
		r.Name = n.applyCasing(r.Name, s.Casing)
	}
	return r
}

// NormalizeAll applies NormalizeRecord to every record.
func (n *ContactNormalizer) NormalizeAll(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = n.NormalizeRecord(r)
	}
	return out
}

// Casers are stateful, so a fresh one is built per call.
func (n *ContactNormalizer) applyCasing(s, casing string) string {
	switch casing {
	case domain.CasingTitle:
		return cases.Title(language.Und).String(s)
	case domain.CasingUpper:
		return cases.Upper(language.Und).String(s)
	case domain.CasingLower:
		return cases.Lower(language.Und).String(s)
	default:
		return s
	}
}
