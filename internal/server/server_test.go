package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidigest/internal/config"
	"aidigest/internal/feed"
	"aidigest/internal/pipeline"
)

type staticFetcher struct{ items []feed.RawItem }

func (f *staticFetcher) Fetch(context.Context, string, time.Time) ([]feed.RawItem, error) {
	return f.items, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	published := time.Date(2026, time.August, 25, 9, 0, 0, 0, time.UTC)
	cfg := config.Default()
	cfg.Queries = []string{"ai"}
	pipe := &pipeline.Pipeline{
		Fetcher: &staticFetcher{items: []feed.RawItem{
			{Title: "served story", URL: "https://example.com/1", Source: "s", Published: &published},
		}},
		Now: func() time.Time { return time.Date(2026, time.August, 25, 11, 0, 0, 0, time.UTC) },
	}
	return New(cfg, pipe, log.New(io.Discard, "", 0))
}

func TestHealthz(t *testing.T) {
	app := testServer(t).App()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestDigestText(t *testing.T) {
	app := testServer(t).App()
	req := httptest.NewRequest(http.MethodGet, "/digest", nil)
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "served story") {
		t.Errorf("body missing item:\n%s", body)
	}
}

func TestDigestHTML(t *testing.T) {
	app := testServer(t).App()
	req := httptest.NewRequest(http.MethodGet, "/digest?format=html", nil)
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}
