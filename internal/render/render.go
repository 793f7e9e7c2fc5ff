// Package render turns the selected, ordered items into the digest artifact.
package render

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"aidigest/internal/normalize"
	"aidigest/internal/score"
)

// NoItemsPlaceholder is the body shown when a run selects nothing. The
// digest is still a valid, sendable artifact.
const NoItemsPlaceholder = "No new items found for this digest window. Check back tomorrow!"

// CoverageNote is appended when some source queries failed during the run.
const CoverageNote = "Note: some sources were unavailable; coverage may be reduced."

// DigestResult is the finished digest. Immutable once produced.
type DigestResult struct {
	Subject     string
	Body        string
	HTMLBody    string
	ItemCount   int
	GeneratedAt time.Time
}

// Options carries per-run render inputs beyond the item list.
type Options struct {
	// Lede is an optional introductory paragraph placed above the items.
	Lede string
	// Partial marks a run where some source queries failed.
	Partial bool
}

// Renderer formats digests for a fixed timezone and category ordering.
// Items are rendered in the order given; the order already encodes ranking.
type Renderer struct {
	Location      *time.Location
	CategoryOrder []string
	// ShowScores includes relevance scores in the item metadata line.
	ShowScores bool
}

type renderItem struct {
	Title     string
	URL       string
	Source    string
	Published string
	Snippet   string
	Score     string
}

type renderSection struct {
	Name  string
	Items []renderItem
}

type renderData struct {
	Date         string
	LongDate     string
	ItemCount    int
	Lede         string
	CoverageNote string
	Placeholder  string
	Sections     []renderSection
	Rule         string
	SectionRule  string
}

var textTmpl = texttemplate.Must(texttemplate.New("digest").Parse(`{{.Rule}}
AI NEWS DIGEST
{{.LongDate}} | {{.ItemCount}} items
{{.Rule}}
{{if .Lede}}
{{.Lede}}
{{end}}{{if .CoverageNote}}
{{.CoverageNote}}
{{end}}{{if .Placeholder}}
{{.Placeholder}}
{{end}}{{range .Sections}}
{{if .Name}}> {{.Name}}
{{$.SectionRule}}
{{end}}{{range .Items}}* {{.Title}}
  [{{.Source}}] {{.Published}}{{if .Score}} | Score: {{.Score}}{{end}}
  {{.URL}}
{{if .Snippet}}  {{.Snippet}}
{{end}}
{{end}}{{end}}{{.Rule}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:-apple-system,Segoe UI,Roboto,Arial,sans-serif;max-width:700px;margin:0 auto;padding:20px;color:#333">
<h1 style="color:#1a365d;border-bottom:3px solid #3182ce;padding-bottom:10px">AI News Digest</h1>
<div style="color:#666;font-size:14px;margin-bottom:20px">{{.LongDate}} &bull; {{.ItemCount}} items</div>
{{if .Lede}}<p>{{.Lede}}</p>{{end}}
{{if .CoverageNote}}<p style="color:#718096;font-style:italic">{{.CoverageNote}}</p>{{end}}
{{if .Placeholder}}<p style="color:#718096;font-style:italic;text-align:center">{{.Placeholder}}</p>{{end}}
{{range .Sections}}
{{if .Name}}<h2 style="color:#2c5282;font-size:18px;border-left:4px solid #3182ce;padding:8px 12px;background:#ebf8ff">{{.Name}}</h2>{{end}}
{{range .Items}}<div style="margin-bottom:20px;padding-bottom:15px;border-bottom:1px solid #e2e8f0">
<div style="font-size:16px;font-weight:600"><a href="{{.URL}}" style="color:#2b6cb0;text-decoration:none">{{.Title}}</a></div>
<div style="font-size:12px;color:#718096">{{.Source}} &bull; {{.Published}}{{if .Score}} &bull; Score: {{.Score}}{{end}}</div>
{{if .Snippet}}<div style="font-size:14px;color:#4a5568">{{.Snippet}}</div>{{end}}
</div>
{{end}}{{end}}
<div style="margin-top:30px;padding-top:20px;border-top:1px solid #e2e8f0;font-size:12px;color:#a0aec0;text-align:center">Generated by aidigest</div>
</body>
</html>
`))

// Render produces the digest for the given ordered items.
func (r *Renderer) Render(items []normalize.NewsItem, generatedAt time.Time, opts Options) (DigestResult, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	local := generatedAt.In(loc)

	data := renderData{
		Date:        local.Format("2006-01-02"),
		LongDate:    local.Format("Monday, January 2, 2006"),
		ItemCount:   len(items),
		Lede:        strings.TrimSpace(opts.Lede),
		Rule:        strings.Repeat("=", 60),
		SectionRule: strings.Repeat("-", 40),
		Sections:    r.sections(items, loc),
	}
	if opts.Partial {
		data.CoverageNote = CoverageNote
	}
	if len(items) == 0 {
		data.Placeholder = NoItemsPlaceholder
	}

	var text, html strings.Builder
	if err := textTmpl.Execute(&text, data); err != nil {
		return DigestResult{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return DigestResult{}, fmt.Errorf("render html body: %w", err)
	}

	return DigestResult{
		Subject:     fmt.Sprintf("AI News Digest — %s", data.Date),
		Body:        text.String(),
		HTMLBody:    html.String(),
		ItemCount:   len(items),
		GeneratedAt: generatedAt,
	}, nil
}

// sections groups items by category when more than the General bucket is in
// play, otherwise returns a single unnamed section. Incoming order is kept
// within every section; sections follow the configured order, General last.
func (r *Renderer) sections(items []normalize.NewsItem, loc *time.Location) []renderSection {
	byCategory := make(map[string][]renderItem)
	var categories []string
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = score.GeneralCategory
		}
		if _, ok := byCategory[cat]; !ok {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], r.item(it, loc))
	}
	if len(categories) <= 1 {
		var all []renderItem
		for _, it := range items {
			all = append(all, r.item(it, loc))
		}
		return []renderSection{{Items: all}}
	}

	ordered := make([]string, 0, len(categories))
	seen := make(map[string]bool)
	for _, name := range r.CategoryOrder {
		if _, ok := byCategory[name]; ok && !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	for _, name := range categories {
		if name != score.GeneralCategory && !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	if _, ok := byCategory[score.GeneralCategory]; ok && !seen[score.GeneralCategory] {
		ordered = append(ordered, score.GeneralCategory)
	}

	out := make([]renderSection, 0, len(ordered))
	for _, name := range ordered {
		out = append(out, renderSection{Name: name, Items: byCategory[name]})
	}
	return out
}

func (r *Renderer) item(it normalize.NewsItem, loc *time.Location) renderItem {
	ri := renderItem{
		Title:     it.Title,
		URL:       it.URL,
		Source:    it.Source,
		Published: it.Published.In(loc).Format("Jan 2"),
		Snippet:   it.Snippet,
	}
	if r.ShowScores && it.Score > 0 {
		ri.Score = strings.TrimSuffix(fmt.Sprintf("%.1f", it.Score), ".0")
	}
	return ri
}
