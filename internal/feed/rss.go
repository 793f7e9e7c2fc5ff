package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"time"

	trafilatura "github.com/markusmobius/go-trafilatura"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"aidigest/internal/config"
)

const snippetMaxLen = 500

// RSSFetcher resolves query terms against RSS/Atom feeds. A query that is
// itself an absolute http(s) URL is fetched as a feed directly; anything else
// is expanded through the configured URL template (a query-capable feed
// endpoint such as Google News search).
type RSSFetcher struct {
	cfg    config.FeedConfig
	client *http.Client
	parser *gofeed.Parser
	logger *log.Logger
}

// NewRSSFetcher constructs a fetcher with sensible defaults.
func NewRSSFetcher(cfg config.FeedConfig, logger *log.Logger) *RSSFetcher {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 15
	}
	if strings.TrimSpace(cfg.URLTemplate) == "" {
		cfg.URLTemplate = config.DefaultFeedURLTemplate
	}
	cli := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	p := gofeed.NewParser()
	p.Client = cli
	p.UserAgent = "aidigest/1.0 (+https://github.com/aidigest)"
	return &RSSFetcher{cfg: cfg, client: cli, parser: p, logger: logger}
}

func (f *RSSFetcher) debugf(format string, args ...any) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

// Fetch implements Fetcher.
func (f *RSSFetcher) Fetch(ctx context.Context, query string, since time.Time) ([]RawItem, error) {
	feedURL, sourceName := f.resolve(query)
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %v", ErrSourceUnavailable, query, err)
	}
	if strings.TrimSpace(parsed.Title) != "" {
		sourceName = parsed.Title
	}

	items := make([]RawItem, 0, len(parsed.Items))
	skippedOld := 0
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		if f.cfg.MaxPerSource > 0 && len(items) >= f.cfg.MaxPerSource {
			break
		}
		published := publishedTime(it)
		// Items without a parsable date stay in; the normalizer defaults
		// them to the invocation time.
		if published != nil && published.Before(since) {
			skippedOld++
			continue
		}
		snippet := itemSnippet(it)
		if snippet == "" && f.cfg.EnrichSnippets {
			snippet = f.extractPageText(ctx, it.Link)
		}
		items = append(items, RawItem{
			Title:     it.Title,
			URL:       it.Link,
			Source:    sourceName,
			Published: published,
			Snippet:   snippet,
		})
	}
	f.debugf("feed parsed: query=%q url=%s items=%d kept=%d skipped_old=%d",
		query, feedURL, len(parsed.Items), len(items), skippedOld)
	return items, nil
}

// resolve maps a query term to a feed URL and a fallback source name.
func (f *RSSFetcher) resolve(query string) (feedURL, sourceName string) {
	q := strings.TrimSpace(query)
	if u, err := neturl.Parse(q); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return q, u.Host
	}
	return fmt.Sprintf(f.cfg.URLTemplate, neturl.QueryEscape(q)), q
}

func publishedTime(it *gofeed.Item) *time.Time {
	if it.PublishedParsed != nil {
		t := it.PublishedParsed.UTC()
		return &t
	}
	if it.UpdatedParsed != nil {
		t := it.UpdatedParsed.UTC()
		return &t
	}
	return nil
}

func itemSnippet(it *gofeed.Item) string {
	raw := firstNonEmpty(it.Description, it.Content)
	s := htmlToText(raw)
	if len(s) > snippetMaxLen {
		s = s[:snippetMaxLen]
	}
	return s
}

// extractPageText fetches the linked page and extracts its main text as a
// snippet substitute for feeds that publish bare links.
func (f *RSSFetcher) extractPageText(ctx context.Context, url string) string {
	if strings.TrimSpace(url) == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.parser.UserAgent)
	resp, err := f.client.Do(req)
	if err != nil || resp == nil || resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return ""
	}
	res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:    func() *neturl.URL { u, _ := neturl.Parse(url); return u }(),
		EnableFallback: true,
		Focus:          trafilatura.Balanced,
	})
	if err != nil || res == nil {
		return ""
	}
	txt := strings.TrimSpace(res.ContentText)
	if len(txt) > snippetMaxLen {
		txt = txt[:snippetMaxLen]
	}
	return txt
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// htmlToText flattens a small HTML fragment into plain text by walking the
// node tree and joining text nodes with single spaces.
func htmlToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	n, err := html.Parse(strings.NewReader(s))
	if err != nil || n == nil {
		out := tagRe.ReplaceAllString(s, " ")
		return strings.Join(strings.Fields(out), " ")
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
