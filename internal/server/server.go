// Package server exposes the digest over HTTP for on-demand reads.
package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"aidigest/internal/config"
	"aidigest/internal/feed"
	"aidigest/internal/pipeline"
)

// Server runs the pipeline on request and writes the digest as the response.
// Requests never trigger delivery; the notifier boundary stays with the
// scheduled run.
type Server struct {
	cfg    config.RunConfig
	pipe   *pipeline.Pipeline
	logger *log.Logger
}

// New builds a server around an existing pipeline. The pipeline's Notifier
// should be nil or a log notifier; Send is not invoked for HTTP reads.
func New(cfg config.RunConfig, pipe *pipeline.Pipeline, logger *log.Logger) *Server {
	return &Server{cfg: cfg, pipe: pipe, logger: logger}
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	app := s.App()
	s.logger.Printf("serving digest on %s", addr)
	return app.Listen(addr)
}

// App assembles the fiber application. Split out for tests.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/digest", func(c *fiber.Ctx) error {
		digest, err := s.pipe.RunOnce(c.Context(), s.cfg)
		if err != nil {
			if errors.Is(err, feed.ErrSourceUnavailable) {
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		switch c.Query("format", "text") {
		case "html":
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.SendString(digest.HTMLBody)
		case "json":
			return c.JSON(fiber.Map{
				"subject":      digest.Subject,
				"body":         digest.Body,
				"item_count":   digest.ItemCount,
				"generated_at": digest.GeneratedAt,
			})
		default:
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.SendString(digest.Body)
		}
	})

	return app
}
