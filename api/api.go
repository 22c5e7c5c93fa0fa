package api

import (
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/logger"
)

// Server is the relay API server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. Routes backed by an unset dependency
// are not mounted.
func NewServer(config Config) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: config.Logger,
		app:    app,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/render", s.handleRender)

	if config.Bot != nil {
		app.Post("/v1/messages", s.handleMessage)
	}

	if config.Storer != nil {
		app.Get("/v1/turns", s.handleListTurns)
		app.Get("/v1/turns/:hash", s.handleGetTurn)
		app.Get("/v1/turns/:hash/history", s.handleGetHistory)
	}

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
