// Package config loads and validates the digest run configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoQueries         = errors.New("at least one query is required")
	ErrInvalidMaxItems   = errors.New("max_items must be at least 1")
	ErrInvalidLookback   = errors.New("lookback_hours must be at least 1")
	ErrInvalidSimilarity = errors.New("similarity_threshold must be in [0,1]")
	ErrInvalidTimezone   = errors.New("timezone is not a valid IANA zone name")
	ErrInvalidSeenTTL    = errors.New("seen_ttl_hours must be non-negative")
)

// DefaultFeedURLTemplate turns a query term into a Google News RSS search feed.
// %s is replaced with the URL-escaped query.
const DefaultFeedURLTemplate = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// FeedConfig controls how feeds are fetched and parsed.
type FeedConfig struct {
	URLTemplate    string `yaml:"url_template"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxPerSource   int    `yaml:"max_per_source"`
	EnrichSnippets bool   `yaml:"enrich_snippets"`
}

// SMTPConfig carries outbound mail settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// AIConfig enables the optional LLM lede when both fields are set.
type AIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// RunConfig is the fully resolved configuration for one digest run. It is
// loaded once, validated, and passed whole into the pipeline; nothing mutates
// it during a run.
type RunConfig struct {
	LookbackHours       int                 `yaml:"lookback_hours"`
	MaxItems            int                 `yaml:"max_items"`
	Queries             []string            `yaml:"queries"`
	Recipients          []string            `yaml:"recipients"`
	Timezone            string              `yaml:"timezone"`
	SimilarityThreshold float64             `yaml:"similarity_threshold"`
	TrackingParams      []string            `yaml:"tracking_params"`
	Feed                FeedConfig          `yaml:"feed"`
	Keywords            map[string]float64  `yaml:"keywords"`
	Categories          map[string][]string `yaml:"categories"`
	CategoryOrder       []string            `yaml:"category_order"`
	MinScore            float64             `yaml:"min_score"`
	SMTP                SMTPConfig          `yaml:"smtp"`
	SeenDB              string              `yaml:"seen_db"`
	SeenTTLHours        int                 `yaml:"seen_ttl_hours"`
	AI                  AIConfig            `yaml:"ai"`
}

// Default returns a RunConfig with all defaults applied and no queries.
func Default() RunConfig {
	return RunConfig{
		LookbackHours:       24,
		MaxItems:            25,
		Timezone:            "UTC",
		SimilarityThreshold: 0.9,
		TrackingParams:      []string{"utm_", "fbclid", "gclid", "mc_cid", "mc_eid", "ref"},
		Feed: FeedConfig{
			URLTemplate:    DefaultFeedURLTemplate,
			TimeoutSeconds: 15,
			MaxPerSource:   10,
		},
		SeenTTLHours: 7 * 24,
	}
}

// DefaultPath returns ~/.config/aidigest/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "aidigest", "config.yaml"), nil
}

// Load reads the YAML file at path, overlays it on the defaults, and
// validates the result. An empty path falls back to DefaultPath.
func Load(path string) (RunConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Lookback returns the lookback window as a duration.
func (c RunConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// SeenTTL returns the seen-store retention as a duration.
func (c RunConfig) SeenTTL() time.Duration {
	return time.Duration(c.SeenTTLHours) * time.Hour
}

// Location resolves the configured timezone. Falls back to UTC for a config
// that skipped validation.
func (c RunConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the invariants the pipeline relies on.
func (c RunConfig) Validate() error {
	if len(c.Queries) == 0 {
		return ErrNoQueries
	}
	if c.MaxItems < 1 {
		return ErrInvalidMaxItems
	}
	if c.LookbackHours < 1 {
		return ErrInvalidLookback
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return ErrInvalidSimilarity
	}
	if c.SeenTTLHours < 0 {
		return ErrInvalidSeenTTL
	}
	if strings.TrimSpace(c.Timezone) != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in a path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
