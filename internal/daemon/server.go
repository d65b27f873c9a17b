// Package daemon assembles the API server from configuration and runs it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/felixgeelhaar/academiax/internal/api"
	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/llm"
	"github.com/felixgeelhaar/academiax/internal/storage"
	"github.com/felixgeelhaar/academiax/internal/storage/backend"
)

// Server represents the AcademiaX HTTP server
type Server struct {
	cfg    *config.Config
	server *http.Server
	app    *api.App
}

// ServerConfig holds configuration for creating a new server. Nil
// collaborators are built from Config.
type ServerConfig struct {
	Config    *config.Config
	Store     storage.Store
	Provider  llm.Provider
	Publisher events.Publisher
}

// NewServer opens the store and the event publisher and builds the router.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}

	store := cfg.Store
	if store == nil {
		var err error
		store, err = backend.Open(ctx, cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	publisher := cfg.Publisher
	if publisher == nil {
		var err error
		publisher, err = events.Open(cfg.Config.RabbitMQURL)
		if err != nil {
			// Events are optional; the API still serves without a broker
			slog.Warn("event publishing disabled", "error", err)
			publisher = events.NopPublisher{}
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := api.NewApp(api.AppConfig{
		Config:    cfg.Config,
		Store:     store,
		Provider:  cfg.Provider,
		Publisher: publisher,
		Registry:  reg,
	})
	if err != nil {
		publisher.Close()
		store.Close(ctx)
		return nil, fmt.Errorf("init app: %w", err)
	}

	handler, err := api.NewRouter(app)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("init router: %w", err)
	}

	if err := store.Ping(ctx); err != nil {
		slog.Warn("store not reachable yet", "driver", cfg.Config.StoreDriver, "error", err)
	}

	return &Server{
		cfg: cfg.Config,
		app: app,
		server: &http.Server{
			Addr:         cfg.Config.Addr(),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second, // completions can be slow
			IdleTimeout:  120 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler served by Start.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	slog.Info("starting academiax server",
		"addr", s.server.Addr,
		"env", s.cfg.Env,
		"store", s.cfg.StoreDriver,
		"llm_provider", s.app.Assistant.Provider(),
	)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests, then releases the app's resources.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server...")

	err := s.server.Shutdown(ctx)
	if closeErr := s.app.Close(ctx); closeErr != nil {
		slog.Warn("failed to release resources", "error", closeErr)
		err = errors.Join(err, closeErr)
	}
	return err
}
