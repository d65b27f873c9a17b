package llm

import (
	"fmt"
	"log/slog"
)

// ProviderConfig selects and configures the completion backend.
type ProviderConfig struct {
	Name       string // openai, claude, ollama
	APIKey     string
	Model      string
	BaseURL    string
	Resilience bool
	Retry      bool
	Logger     *slog.Logger
}

// NewProvider builds the named provider, wrapped in the resilience layer
// when enabled.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	var p Provider
	switch cfg.Name {
	case "openai", "":
		p = NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case "claude":
		p = NewClaudeProvider(ClaudeConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case "ollama":
		p = NewOllamaProvider(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, cfg.Name)
	}

	if !cfg.Resilience {
		return p, nil
	}
	rc := DefaultResilientConfig()
	rc.EnableRetry = cfg.Retry
	rc.Logger = cfg.Logger
	return NewResilientProvider(p, rc), nil
}

// NewRegistryFor registers the configured provider as the default.
func NewRegistryFor(cfg ProviderConfig) (*Registry, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	r.Register(p.Name(), p)
	if err := r.SetDefault(p.Name()); err != nil {
		return nil, err
	}
	return r, nil
}
