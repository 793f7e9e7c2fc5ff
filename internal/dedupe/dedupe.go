// Package dedupe removes duplicate and near-duplicate items within a run.
package dedupe

import (
	"strings"
	"unicode"

	"aidigest/internal/normalize"
)

// DefaultThreshold is the token-set overlap ratio above which two titles are
// treated as the same story.
const DefaultThreshold = 0.9

// Deduplicator drops later occurrences of items already seen, first by
// canonical URL, then by near-duplicate title. Input order is preserved and
// the output is deterministic for a given input sequence.
type Deduplicator struct {
	// SimilarityThreshold in [0,1]; zero means DefaultThreshold.
	SimilarityThreshold float64
}

type kept struct {
	titleKey string
	tokens   map[string]struct{}
}

// Dedupe returns the input with duplicates removed, keeping the first
// occurrence in input order.
func (d *Deduplicator) Dedupe(items []normalize.NewsItem) []normalize.NewsItem {
	threshold := d.SimilarityThreshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	out := make([]normalize.NewsItem, 0, len(items))
	seenURL := make(map[string]struct{}, len(items))
	seen := make([]kept, 0, len(items))

	for _, it := range items {
		if _, ok := seenURL[it.URL]; ok {
			continue
		}
		key := titleKey(it.Title)
		tokens := tokenSet(key)
		dup := false
		for _, k := range seen {
			if k.titleKey == key || overlap(k.tokens, tokens) >= threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seenURL[it.URL] = struct{}{}
		seen = append(seen, kept{titleKey: key, tokens: tokens})
		out = append(out, it)
	}
	return out
}

// titleKey lowercases a title and strips punctuation so that trivially
// restyled headlines compare equal.
func titleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(key string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(key) {
		set[tok] = struct{}{}
	}
	return set
}

// overlap is the Jaccard ratio |a∩b| / |a∪b|. Two empty sets overlap fully.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}
