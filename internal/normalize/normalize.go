// Package normalize converts raw source items into the canonical NewsItem
// record every downstream stage depends on.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"aidigest/internal/feed"
)

// NewsItem is the canonical record. URL is the identity key within a run
// after canonicalization. Score and Category are filled by the scoring stage.
type NewsItem struct {
	Title     string
	URL       string
	Source    string
	Published time.Time
	Snippet   string
	Score     float64
	Category  string
}

// MalformedItemError reports a raw item rejected at the normalization
// boundary, naming the offending field.
type MalformedItemError struct {
	Field  string
	Reason string
}

func (e *MalformedItemError) Error() string {
	return fmt.Sprintf("malformed item: %s: %s", e.Field, e.Reason)
}

// Normalizer holds the per-run normalization policy.
type Normalizer struct {
	// TrackingParams is a denylist of query parameter names; a name ending
	// in "_" matches as a prefix (so "utm_" covers utm_source etc).
	TrackingParams []string
	// Now is the run's invocation time, used when a source omits the
	// published timestamp. An absent timestamp must never drop an item.
	Now time.Time
}

// Normalize converts one raw item, or rejects it with a MalformedItemError.
func (n *Normalizer) Normalize(raw feed.RawItem) (NewsItem, error) {
	title := collapseWhitespace(raw.Title)
	if title == "" {
		return NewsItem{}, &MalformedItemError{Field: "title", Reason: "empty or whitespace-only"}
	}
	canon, err := n.CanonicalURL(raw.URL)
	if err != nil {
		return NewsItem{}, &MalformedItemError{Field: "url", Reason: err.Error()}
	}
	published := n.Now
	if raw.Published != nil {
		published = raw.Published.UTC()
	}
	return NewsItem{
		Title:     title,
		URL:       canon,
		Source:    collapseWhitespace(raw.Source),
		Published: published,
		Snippet:   collapseWhitespace(raw.Snippet),
	}, nil
}

// CanonicalURL rewrites a URL into its canonical form: lowercase scheme and
// host, default ports stripped, trailing slash stripped, fragment dropped,
// tracking parameters removed, remaining query re-encoded in sorted order.
func (n *Normalizer) CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparsable url: %v", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	host := strings.ToLower(u.Host)
	switch u.Scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if n.isTrackingParam(key) {
			delete(q, key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (n *Normalizer) isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	for _, deny := range n.TrackingParams {
		d := strings.ToLower(deny)
		if strings.HasSuffix(d, "_") {
			if strings.HasPrefix(k, d) {
				return true
			}
		} else if k == d {
			return true
		}
	}
	return false
}

// collapseWhitespace trims the string and squeezes internal whitespace runs
// to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
