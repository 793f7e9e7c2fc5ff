// Package pipeline wires fetch, normalize, score, dedupe, rank, render and
// delivery into the single run entry point the scheduler invokes.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"aidigest/internal/config"
	"aidigest/internal/dedupe"
	"aidigest/internal/feed"
	"aidigest/internal/normalize"
	"aidigest/internal/notify"
	"aidigest/internal/rank"
	"aidigest/internal/render"
	"aidigest/internal/score"
)

// SeenFilter is the optional cross-run dedup collaborator.
type SeenFilter interface {
	Filter(ctx context.Context, items []normalize.NewsItem) ([]normalize.NewsItem, error)
	MarkSent(ctx context.Context, items []normalize.NewsItem, sentAt time.Time) error
}

// LedeWriter is the optional digest-introduction collaborator.
type LedeWriter interface {
	Enabled() bool
	Lede(ctx context.Context, items []normalize.NewsItem) (string, error)
}

// Pipeline orchestrates one digest run. All state lives in the RunOnce call;
// a Pipeline value is safe to reuse across runs.
type Pipeline struct {
	Fetcher  feed.Fetcher
	Notifier notify.Notifier
	Seen     SeenFilter
	Lede     LedeWriter
	Logger   *log.Logger
	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

type queryResult struct {
	items []feed.RawItem
	err   error
}

// RunOnce executes the full pipeline for one invocation. A non-nil
// DigestResult is returned whenever one was computed, even if delivery
// failed; the error then wraps notify.ErrDeliveryFailed.
func (p *Pipeline) RunOnce(ctx context.Context, cfg config.RunConfig) (*render.DigestResult, error) {
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now().UTC()
	}
	runID := uuid.NewString()[:8]
	since := now.Add(-cfg.Lookback())
	p.logf("run=%s start queries=%d lookback=%s", runID, len(cfg.Queries), cfg.Lookback())

	raw, failed, fetchErr := p.fetchAll(ctx, cfg.Queries, since)
	if len(cfg.Queries) > 0 && failed == len(cfg.Queries) {
		p.logf("run=%s aborted: all queries failed: %v", runID, fetchErr)
		return nil, fmt.Errorf("%w: all %d queries failed: %v", feed.ErrSourceUnavailable, failed, fetchErr)
	}
	if failed > 0 {
		p.logf("run=%s degraded: %d/%d queries failed: %v", runID, failed, len(cfg.Queries), fetchErr)
	}

	normalizer := &normalize.Normalizer{TrackingParams: cfg.TrackingParams, Now: now}
	items := make([]normalize.NewsItem, 0, len(raw))
	rejected := 0
	for _, r := range raw {
		it, err := normalizer.Normalize(r)
		if err != nil {
			rejected++
			p.logf("run=%s dropped item: %v (url=%q)", runID, err, r.URL)
			continue
		}
		items = append(items, it)
	}

	scorer := &score.Scorer{Keywords: cfg.Keywords, Categories: cfg.Categories, MinScore: cfg.MinScore}
	items = scorer.Apply(items)

	dedup := &dedupe.Deduplicator{SimilarityThreshold: cfg.SimilarityThreshold}
	beforeDedupe := len(items)
	items = dedup.Dedupe(items)
	dropped := beforeDedupe - len(items)

	if p.Seen != nil {
		filtered, err := p.Seen.Filter(ctx, items)
		if err != nil {
			// A broken seen store degrades to a stateless run.
			p.logf("run=%s seen store filter failed, continuing unfiltered: %v", runID, err)
		} else {
			items = filtered
		}
	}

	selected := rank.Select(items, cfg.MaxItems)
	p.logf("run=%s fetched=%d rejected=%d deduped=%d selected=%d",
		runID, len(raw), rejected, dropped, len(selected))

	var lede string
	if p.Lede != nil && p.Lede.Enabled() && len(selected) > 0 {
		l, err := p.Lede.Lede(ctx, selected)
		if err != nil {
			p.logf("run=%s lede generation failed, continuing without: %v", runID, err)
		} else {
			lede = l
		}
	}

	renderer := &render.Renderer{
		Location:      cfg.Location(),
		CategoryOrder: cfg.CategoryOrder,
		ShowScores:    scorer.Enabled(),
	}
	digest, err := renderer.Render(selected, now, render.Options{Lede: lede, Partial: failed > 0})
	if err != nil {
		return nil, err
	}

	if p.Notifier != nil {
		if err := p.Notifier.Send(ctx, digest, cfg.Recipients); err != nil {
			// The digest was computed; report the failure alongside it.
			p.logf("run=%s delivery failed: %v", runID, err)
			return &digest, err
		}
		if p.Seen != nil && len(selected) > 0 {
			if err := p.Seen.MarkSent(ctx, selected, now); err != nil {
				p.logf("run=%s seen store update failed: %v", runID, err)
			}
		}
	}
	p.logf("run=%s done items=%d", runID, digest.ItemCount)
	return &digest, nil
}

// fetchAll issues every query concurrently and reassembles the results in
// query order, so concurrency never changes the digest content.
func (p *Pipeline) fetchAll(ctx context.Context, queries []string, since time.Time) ([]feed.RawItem, int, error) {
	results := make([]queryResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			items, err := p.Fetcher.Fetch(ctx, q, since)
			results[i] = queryResult{items: items, err: err}
		}(i, q)
	}
	wg.Wait()

	var raw []feed.RawItem
	var merr *multierror.Error
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			merr = multierror.Append(merr, res.err)
			continue
		}
		raw = append(raw, res.items...)
	}
	return raw, failed, merr.ErrorOrNil()
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
