// Package dashboard serves a read-only JSON view of the pipeline:
// the dependency graph, per-step staleness, and the attestation index.
package dashboard

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/store"
)

// Config holds dashboard server settings.
type Config struct {
	ListenAddr string
}

// Server is the dashboard server.
type Server struct {
	config    Config
	graph     *pipeline.Graph
	evaluator *pipeline.Evaluator
	index     *store.Store
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new dashboard server. The store may be nil when
// no attestation index exists yet.
func NewServer(config Config, graph *pipeline.Graph, evaluator *pipeline.Evaluator, index *store.Store, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		graph:     graph,
		evaluator: evaluator,
		index:     index,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/api/pipeline", s.handlePipeline)
	app.Get("/api/status", s.handleStatus)
	app.Get("/api/attestations", s.handleAttestations)

	return s
}

// Run starts the dashboard server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting dashboard server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the dashboard server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
