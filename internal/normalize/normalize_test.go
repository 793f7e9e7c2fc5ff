package normalize

import (
	"errors"
	"testing"
	"time"

	"aidigest/internal/feed"
)

var testNow = time.Date(2026, time.August, 25, 11, 0, 0, 0, time.UTC)

func testNormalizer() *Normalizer {
	return &Normalizer{
		TrackingParams: []string{"utm_", "fbclid", "gclid", "ref"},
		Now:            testNow,
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name  string
		raw   feed.RawItem
		field string
	}{
		{"empty title", feed.RawItem{Title: "   ", URL: "https://example.com/a"}, "title"},
		{"empty url", feed.RawItem{Title: "ok", URL: ""}, "url"},
		{"relative url", feed.RawItem{Title: "ok", URL: "/articles/1"}, "url"},
		{"bad scheme", feed.RawItem{Title: "ok", URL: "ftp://example.com/a"}, "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			var me *MalformedItemError
			if !errors.As(err, &me) {
				t.Fatalf("err = %v, want MalformedItemError", err)
			}
			if me.Field != tt.field {
				t.Errorf("field = %q, want %q", me.Field, tt.field)
			}
		})
	}
}

func TestNormalizeWhitespaceAndDefaults(t *testing.T) {
	n := testNormalizer()
	item, err := n.Normalize(feed.RawItem{
		Title:   "  AI   on\tcampus \n",
		URL:     "https://example.com/a",
		Source:  " Campus  Weekly ",
		Snippet: " a \n b ",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if item.Title != "AI on campus" {
		t.Errorf("title = %q", item.Title)
	}
	if item.Source != "Campus Weekly" {
		t.Errorf("source = %q", item.Source)
	}
	if item.Snippet != "a b" {
		t.Errorf("snippet = %q", item.Snippet)
	}
	if !item.Published.Equal(testNow) {
		t.Errorf("absent published defaulted to %v, want %v", item.Published, testNow)
	}
}

func TestCanonicalURL(t *testing.T) {
	n := testNormalizer()
	tests := []struct {
		in, want string
	}{
		{"HTTPS://Example.COM/Path/", "https://example.com/Path"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"http://example.com:8080/a", "http://example.com:8080/a"},
		{"https://example.com/a?utm_source=x&utm_medium=y&id=7", "https://example.com/a?id=7"},
		{"https://example.com/a?fbclid=zzz", "https://example.com/a"},
		{"https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"https://example.com/a#section", "https://example.com/a"},
	}
	for _, tt := range tests {
		got, err := n.CanonicalURL(tt.in)
		if err != nil {
			t.Errorf("CanonicalURL(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Normalizing an already-normalized item changes nothing.
func TestNormalizeIdempotent(t *testing.T) {
	n := testNormalizer()
	first, err := n.Normalize(feed.RawItem{
		Title:     "Provost announces AI tutoring pilot",
		URL:       "HTTPS://Example.EDU/articles/1/?utm_campaign=daily",
		Source:    "Campus AI Weekly",
		Published: &testNow,
		Snippet:   "The pilot covers three departments.",
	})
	if err != nil {
		t.Fatalf("first Normalize: %v", err)
	}
	second, err := n.Normalize(feed.RawItem{
		Title:     first.Title,
		URL:       first.URL,
		Source:    first.Source,
		Published: &first.Published,
		Snippet:   first.Snippet,
	})
	if err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	if first != second {
		t.Errorf("not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}
