package normalizer

import (
	"strings"
	"unicode"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// LowercaseNormalizer lower-cases text and nothing else. It is the scorer's default.
type LowercaseNormalizer struct{}

// NewDefaultNormalizer creates the lower-casing normalizer.
func NewDefaultNormalizer() ports.Normalizer {
	return &LowercaseNormalizer{}
}

// Normalize converts the input text to lower case.
func (n *LowercaseNormalizer) Normalize(text string) string {
	return strings.ToLower(text)
}

// FoldedNormalizer lower-cases text, drops punctuation and collapses whitespace,
// so "J. Smith" and "j smith" compare as equal.
type FoldedNormalizer struct{}

// NewFoldedNormalizer creates the folding normalizer.
func NewFoldedNormalizer() ports.Normalizer {
	return &FoldedNormalizer{}
}

// Normalize lower-cases, removes punctuation and collapses runs of whitespace.
func (n *FoldedNormalizer) Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsPunct(r):
			continue
		case unicode.IsSpace(r):
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Type names a normalizer strategy.
type Type string

const (
	LowercaseType Type = "lowercase"
	FoldedType    Type = "folded"
)

// ParseType maps a config string to a Type; unknown or empty values give LowercaseType.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case FoldedType:
		return FoldedType
	default:
		return LowercaseType
	}
}

// Create returns the normalizer for t.
func Create(t Type) ports.Normalizer {
	switch t {
	case FoldedType:
		return NewFoldedNormalizer()
	default:
		return NewDefaultNormalizer()
	}
}
