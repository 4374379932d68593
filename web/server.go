// Package web serves the narrator page, the run API and the run event
// stream.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/session"
	"github.com/mrsingh-rishi/storybook-narrator/storage"
)

//go:embed static/index.html
var staticFS embed.FS

var indexTmpl = template.Must(template.ParseFS(staticFS, "static/index.html"))

type Options struct {
	Sessions       *session.Manager
	Artifacts      storage.ArtifactStore
	MaxUploadBytes int
	Language       string
	Logger         zerolog.Logger
}

type Server struct {
	app       *fiber.App
	sessions  *session.Manager
	artifacts storage.ArtifactStore
	language  string
	maxUpload int
	logger    zerolog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if opts.Artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}

	s := &Server{
		sessions:  opts.Sessions,
		artifacts: opts.Artifacts,
		language:  opts.Language,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger.With().Str("component", "web").Logger(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "storybook-narrator",
		BodyLimit:             opts.MaxUploadBytes,
		DisableStartupMessage: true,
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Post("/runs", s.handleUpload)
	api.Get("/runs", s.handleList)
	api.Get("/runs/:id", s.handleGet)
	api.Post("/runs/:id/start", s.handleStart)
	api.Get("/runs/:id/audio", s.handleAudio)
	api.Get("/runs/:id/report.docx", s.handleReport)

	// Middleware to require WebSocket upgrade on /ws
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/runs/:id", websocket.New(s.handleEvents))
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
