package dedupe

import (
	"reflect"
	"testing"
	"time"

	"aidigest/internal/normalize"
)

func item(title, url string) normalize.NewsItem {
	return normalize.NewsItem{
		Title:     title,
		URL:       url,
		Source:    "test",
		Published: time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC),
	}
}

func titles(items []normalize.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestDedupeByURL(t *testing.T) {
	d := &Deduplicator{}
	in := []normalize.NewsItem{
		item("first story", "https://example.com/a"),
		item("second story entirely different words", "https://example.com/a"),
		item("third story with its own unique phrasing", "https://example.com/b"),
	}
	got := d.Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(got), titles(got))
	}
	if got[0].Title != "first story" {
		t.Errorf("first occurrence not kept: %q", got[0].Title)
	}
}

func TestDedupeNearDuplicateTitles(t *testing.T) {
	d := &Deduplicator{}
	in := []normalize.NewsItem{
		item("OpenAI Releases New Model!", "https://a.example.com/1"),
		item("openai releases new model", "https://b.example.com/2"),
		item("University budget approved for next year", "https://c.example.com/3"),
	}
	got := d.Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(got), titles(got))
	}
	if got[0].URL != "https://a.example.com/1" {
		t.Errorf("earlier occurrence should win, got %q", got[0].URL)
	}
}

func TestDedupeTokenOverlap(t *testing.T) {
	// Nine of ten tokens shared: overlap 9/11 = 0.81 < 0.9 keeps both;
	// a lower threshold drops the later one.
	a := item("one two three four five six seven eight nine ten", "https://x.example.com/1")
	b := item("one two three four five six seven eight nine eleven", "https://y.example.com/2")

	strict := &Deduplicator{SimilarityThreshold: 0.9}
	if got := strict.Dedupe([]normalize.NewsItem{a, b}); len(got) != 2 {
		t.Fatalf("threshold 0.9: got %d items, want 2", len(got))
	}
	loose := &Deduplicator{SimilarityThreshold: 0.8}
	if got := loose.Dedupe([]normalize.NewsItem{a, b}); len(got) != 1 {
		t.Fatalf("threshold 0.8: got %d items, want 1", len(got))
	}
}

// Dedupe is a projection: applying it twice changes nothing, and it never
// grows the input.
func TestDedupeProjection(t *testing.T) {
	d := &Deduplicator{}
	in := []normalize.NewsItem{
		item("alpha beta gamma", "https://example.com/a"),
		item("alpha beta gamma", "https://example.com/b"),
		item("delta epsilon zeta", "https://example.com/c"),
		item("delta epsilon zeta", "https://example.com/c"),
	}
	once := d.Dedupe(in)
	twice := d.Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not a projection:\nonce  %v\ntwice %v", titles(once), titles(twice))
	}
	if len(once) > len(in) {
		t.Errorf("output longer than input: %d > %d", len(once), len(in))
	}
}

func TestDedupeDeterministic(t *testing.T) {
	d := &Deduplicator{}
	in := []normalize.NewsItem{
		item("story one about budgets", "https://example.com/1"),
		item("story two about chatbots", "https://example.com/2"),
		item("story one about budgets", "https://example.com/3"),
	}
	first := d.Dedupe(in)
	for i := 0; i < 10; i++ {
		if got := d.Dedupe(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %v vs %v", i, titles(got), titles(first))
		}
	}
}

func TestTitleKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello world"},
		{"  A--B  c ", "ab c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleKey(tt.in); got != tt.want {
			t.Errorf("titleKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
