// Package feed defines the source boundary of the digest pipeline: raw
// candidate items and the fetcher that produces them.
package feed

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable reports that a source query could not be served at all.
var ErrSourceUnavailable = errors.New("source unavailable")

// RawItem is a source-provided record. Nothing is guaranteed about it; the
// normalizer decides what is usable.
type RawItem struct {
	Title     string
	URL       string
	Source    string
	Published *time.Time
	Snippet   string
}

// Fetcher returns raw candidate items for one query term, limited to items
// published at or after since.
type Fetcher interface {
	Fetch(ctx context.Context, query string, since time.Time) ([]RawItem, error)
}
