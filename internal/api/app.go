package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/academiax/internal/assistant"
	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/llm"
	"github.com/felixgeelhaar/academiax/internal/metrics"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

// App holds all application dependencies
type App struct {
	Config    *config.Config
	Store     storage.Store
	Issuer    *auth.Issuer
	Verifier  *auth.Verifier
	Assistant *assistant.Service
	Events    events.Publisher
	Metrics   metrics.Recorder
	Gatherer  prometheus.Gatherer
	Overrides map[string]config.RouteOverride

	closers []func() error
}

// AppConfig holds configuration for application initialization. Store is
// required; nil collaborators get defaults built from Config.
type AppConfig struct {
	Config    *config.Config
	Store     storage.Store
	Provider  llm.Provider
	Publisher events.Publisher
	Registry  *prometheus.Registry
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(cfg AppConfig) (*App, error) {
	if cfg.Config == nil || cfg.Store == nil {
		return nil, errors.New("config and store are required")
	}

	app := &App{
		Config: cfg.Config,
		Store:  cfg.Store,
		Events: cfg.Publisher,
	}

	secret := []byte(cfg.Config.TokenSecret)
	issuer, err := auth.NewIssuer(secret, cfg.Config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	verifier, err := auth.NewVerifier(secret)
	if err != nil {
		return nil, fmt.Errorf("init token verifier: %w", err)
	}
	app.Issuer, app.Verifier = issuer, verifier

	overrides, err := config.LoadRoutePolicy(cfg.Config.RoutePolicyFile)
	if err != nil {
		return nil, err
	}
	app.Overrides = overrides

	provider := cfg.Provider
	if provider == nil {
		provider, err = NewProvider(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("init completion provider: %w", err)
		}
	}
	if c, ok := provider.(interface{ Close() error }); ok {
		app.closers = append(app.closers, c.Close)
	}
	app.Assistant = assistant.NewService(provider, cfg.Store)

	if app.Events == nil {
		app.Events = events.NopPublisher{}
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	app.Metrics = metrics.NewCollector(reg)
	app.Gatherer = reg

	return app, nil
}

// NewProvider builds the completion provider described by cfg.
func NewProvider(cfg *config.Config) (llm.Provider, error) {
	pc := llm.ProviderConfig{
		Name:       cfg.LLMProvider,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		Resilience: cfg.LLMResilience,
		Retry:      cfg.LLMRetry,
		Logger:     slog.Default(),
	}
	if cfg.LLMProvider != "openai" && cfg.LLMModel == config.DefaultLLMModel {
		// The default names an OpenAI model; let other providers pick theirs
		pc.Model = ""
	}
	switch cfg.LLMProvider {
	case "ollama":
		pc.BaseURL = cfg.OllamaURL
	case "openai", "claude", "":
		if cfg.LLMAPIKey == "" {
			slog.Warn("no completion API key configured, /ai-chat and /generate-questions will fail",
				"provider", cfg.LLMProvider)
		}
	}
	return llm.NewProvider(pc)
}

// Close releases the publisher, the provider and the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close events: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
