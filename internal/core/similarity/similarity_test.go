package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "john", b: "john", want: 1.0},
		{name: "case insensitive", a: "ABC", b: "abc", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "containment forward", a: "John", b: "Johnny", want: 0.8},
		{name: "containment backward", a: "Johnny", b: "John", want: 0.8},
		{name: "containment ignores case", a: "SMITH", b: "j.smith", want: 0.8},
		{name: "character set fallback", a: "abc", b: "bcd", want: 2.0 / 3.0},
		{name: "duplicate characters collapse", a: "aabbcc", b: "abd", want: 2.0 / 3.0},
		{name: "no shared characters", a: "abc", b: "xyz", want: 0},
		{name: "same set different order", a: "john smith", b: "jon smith", want: 1.0},
		{name: "multibyte runes", a: "zoë", b: "zoe", want: 2.0 / 3.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Similarity(tc.a, tc.b), 1e-12)
		})
	}
}

// An empty string is contained in every string, so a blank field scores as a
// containment match against anything. Kept as-is; see the package docs.
func TestSimilarity_EmptyStringContainmentQuirk(t *testing.T) {
	assert.Equal(t, ContainmentScore, Similarity("", "anything"))
	assert.Equal(t, ContainmentScore, Similarity("anything", ""))
}

func TestSimilarity_Properties(t *testing.T) {
	corpus := []string{
		"", "a", "A", "john", "John Smith", "jon smith", "johnsmith@example.com",
		"jane@example.com", "Zoë", "日本語", "日本", "\xff\xfe", "  ", "abc", "cba",
		strings.Repeat("xyz", 2000),
	}

	for _, a := range corpus {
		t.Run("identity/"+a, func(t *testing.T) {
			assert.Equal(t, 1.0, Similarity(a, a))
		})
		for _, b := range corpus {
			ab := Similarity(a, b)
			ba := Similarity(b, a)
			assert.Equal(t, ab, ba, "symmetry for %q, %q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

type upperNormalizer struct{}

func (upperNormalizer) Normalize(text string) string { return strings.ToUpper(text) }

func TestScorer(t *testing.T) {
	t.Run("nil normalizer matches Similarity", func(t *testing.T) {
		s := NewScorer(nil)
		assert.Equal(t, Similarity("abc", "bcd"), s.Score("abc", "bcd"))
		assert.Equal(t, 1.0, s.Score("ABC", "abc"))
	})

	t.Run("custom normalizer is applied", func(t *testing.T) {
		s := NewScorer(upperNormalizer{})
		assert.Equal(t, 1.0, s.Score("Mixed", "mIXED"))
	})
}
