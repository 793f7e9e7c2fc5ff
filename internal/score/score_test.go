package score

import (
	"testing"

	"aidigest/internal/normalize"
)

func scorer() *Scorer {
	return &Scorer{
		Keywords: map[string]float64{
			"generative ai": 5,
			"provost":       4,
			"chatbot":       2,
		},
		Categories: map[string][]string{
			"Higher Ed":      {"provost", "campus"},
			"AI Development": {"generative ai", "model"},
		},
		MinScore: 3,
	}
}

func TestScoreWeightsAndTitleBonus(t *testing.T) {
	s := scorer()
	it := s.Score(normalize.NewsItem{
		Title:   "Provost pilots generative AI advising",
		Snippet: "A campus chatbot joins the program.",
	})
	// provost: 4 + 2 title bonus; generative ai: 5 + 2.5; chatbot: 2.
	if it.Score != 15.5 {
		t.Errorf("score = %v, want 15.5", it.Score)
	}
}

func TestScoreCategory(t *testing.T) {
	s := scorer()
	it := s.Score(normalize.NewsItem{Title: "Provost budget update"})
	if it.Category != "Higher Ed" {
		t.Errorf("category = %q, want Higher Ed", it.Category)
	}
	it = s.Score(normalize.NewsItem{Title: "Nothing relevant here"})
	if it.Category != GeneralCategory {
		t.Errorf("category = %q, want %q", it.Category, GeneralCategory)
	}
}

func TestApplyFiltersBelowMinScore(t *testing.T) {
	s := scorer()
	in := []normalize.NewsItem{
		{Title: "Provost announcement", URL: "https://example.com/1"},
		{Title: "Chatbot mention only", URL: "https://example.com/2"}, // 2 + 1 = 3, at threshold
		{Title: "Unrelated gardening news", URL: "https://example.com/3"},
	}
	got := s.Apply(in)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0].URL != "https://example.com/1" || got[1].URL != "https://example.com/2" {
		t.Errorf("unexpected survivors: %+v", got)
	}
}

func TestApplyDisabledPassesThrough(t *testing.T) {
	s := &Scorer{MinScore: 100}
	in := []normalize.NewsItem{
		{Title: "anything", URL: "https://example.com/1"},
	}
	got := s.Apply(in)
	if len(got) != 1 {
		t.Fatalf("disabled scorer dropped items: %d", len(got))
	}
	if got[0].Category != GeneralCategory {
		t.Errorf("category = %q, want %q", got[0].Category, GeneralCategory)
	}
}
