// Package rank orders deduplicated items and truncates to the digest size.
package rank

import (
	"sort"

	"aidigest/internal/normalize"
)

// Select sorts items most recent first and truncates to max. Ties are broken
// by source name, then by URL, so the same input always produces the same
// output. max <= 0 yields an empty slice; the input is not modified.
func Select(items []normalize.NewsItem, max int) []normalize.NewsItem {
	if len(items) == 0 || max <= 0 {
		return []normalize.NewsItem{}
	}
	sorted := make([]normalize.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Published.Equal(b.Published) {
			return a.Published.After(b.Published)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.URL < b.URL
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}
