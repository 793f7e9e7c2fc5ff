// Package score assigns keyword relevance and categories to news items.
package score

import (
	"sort"
	"strings"

	"aidigest/internal/normalize"
)

// GeneralCategory is assigned when no configured category matches.
const GeneralCategory = "General"

// Scorer holds the keyword weights and category vocabulary. An empty
// Keywords map disables scoring entirely: Apply passes items through with a
// zero score and the General category, and MinScore is ignored.
type Scorer struct {
	Keywords   map[string]float64
	Categories map[string][]string
	MinScore   float64
}

// Enabled reports whether any keywords are configured.
func (s *Scorer) Enabled() bool {
	return len(s.Keywords) > 0
}

// Apply scores every item and drops those below MinScore. Input order is
// preserved.
func (s *Scorer) Apply(items []normalize.NewsItem) []normalize.NewsItem {
	out := make([]normalize.NewsItem, 0, len(items))
	for _, it := range items {
		scored := s.Score(it)
		if s.Enabled() && scored.Score < s.MinScore {
			continue
		}
		out = append(out, scored)
	}
	return out
}

// Score fills Score and Category on a copy of the item. Keyword hits in the
// title count an extra half weight, matching how headline mentions outrank
// body mentions.
func (s *Scorer) Score(it normalize.NewsItem) normalize.NewsItem {
	it.Category = GeneralCategory
	if !s.Enabled() {
		return it
	}
	text := strings.ToLower(it.Title + " " + it.Snippet)
	title := strings.ToLower(it.Title)

	var total float64
	var matched []string
	for kw, weight := range s.Keywords {
		k := strings.ToLower(kw)
		if strings.Contains(text, k) {
			total += weight
			matched = append(matched, k)
		}
		if strings.Contains(title, k) {
			total += weight * 0.5
		}
	}
	it.Score = total
	it.Category = s.categorize(matched)
	return it
}

// categorize picks the category whose match terms cover the most matched
// keywords. Ties resolve to the lexicographically smallest category name so
// the result is deterministic.
func (s *Scorer) categorize(matched []string) string {
	best := GeneralCategory
	bestScore := 0
	// map iteration order is random; walk names sorted for determinism
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		terms := s.Categories[name]
		score := 0
		for _, kw := range matched {
			for _, term := range terms {
				if strings.Contains(kw, strings.ToLower(term)) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best
}
