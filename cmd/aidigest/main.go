package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"aidigest/internal/config"
	"aidigest/internal/daemon"
	"aidigest/internal/feed"
	"aidigest/internal/notify"
	"aidigest/internal/pipeline"
	"aidigest/internal/seenstore"
	"aidigest/internal/server"
	"aidigest/internal/summary"
)

func main() {
	app := &cli.Command{
		Name:  "aidigest",
		Usage: "Daily AI news digest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to config.yaml (default ~/.config/aidigest/config.yaml)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the pipeline once and deliver the digest",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, pipe, cleanup, err := buildPipeline(c.String("config"), true)
					if err != nil {
						return err
					}
					defer cleanup()
					_, err = pipe.RunOnce(ctx, cfg)
					return err
				},
			},
			{
				Name:  "preview",
				Usage: "Run the pipeline and print the digest without delivering",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, pipe, cleanup, err := buildPipeline(c.String("config"), false)
					if err != nil {
						return err
					}
					defer cleanup()
					digest, err := pipe.RunOnce(ctx, cfg)
					if err != nil {
						return err
					}
					fmt.Printf("Subject: %s\n\n%s", digest.Subject, digest.Body)
					return nil
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the digest over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "Listen address"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, pipe, cleanup, err := buildPipeline(c.String("config"), false)
					if err != nil {
						return err
					}
					defer cleanup()
					srv := server.New(cfg, pipe, newLogger())
					return srv.Run(c.String("addr"))
				},
			},
			{
				Name:  "daemon",
				Usage: "Run on an in-process cron schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schedule", Value: "0 11 * * *", Usage: "Cron schedule (5-field)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, pipe, cleanup, err := buildPipeline(c.String("config"), true)
					if err != nil {
						return err
					}
					defer cleanup()
					d := daemon.New(cfg, pipe, newLogger())
					return d.Run(ctx, c.String("schedule"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "[aidigest] ", log.LstdFlags)
}

// buildPipeline loads config and assembles the pipeline with its optional
// collaborators. deliver selects the SMTP notifier; preview and serve paths
// get a log-only notifier so nothing is sent.
func buildPipeline(configPath string, deliver bool) (config.RunConfig, *pipeline.Pipeline, func(), error) {
	logger := newLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}

	pipe := &pipeline.Pipeline{
		Fetcher: feed.NewRSSFetcher(cfg.Feed, logger),
		Logger:  logger,
	}
	if deliver {
		pipe.Notifier = notify.NewSMTPNotifier(cfg.SMTP)
	} else {
		pipe.Notifier = &notify.LogNotifier{Logger: logger}
	}

	cleanup := func() {}
	// Only delivering runs consult and update the seen store; previews must
	// not mark items as sent.
	if deliver && cfg.SeenDB != "" {
		store, err := seenstore.Open(config.ExpandPath(cfg.SeenDB), cfg.SeenTTL())
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("open seen store: %w", err)
		}
		pipe.Seen = store
		cleanup = func() { store.Close() }
	}
	if s := summary.New(cfg.AI); s.Enabled() {
		pipe.Lede = s
	}
	return cfg, pipe, cleanup, nil
}
