package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/llm"
	"github.com/felixgeelhaar/academiax/internal/storage/backend"
)

// cmdDoctor checks the configured collaborators
func cmdDoctor() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println(titleStyle.Render("AcademiaX Doctor"))
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok := checkStore(ctx, cfg)
	ok = checkProvider(cfg) && ok
	ok = checkEvents(cfg) && ok

	if cfg.TokenSecret == "change-me-in-production" {
		note("Token secret", "using the development default")
	} else {
		check("Token secret", nil, "set")
	}

	if !ok {
		return errors.New("some checks failed")
	}
	return nil
}

func checkStore(ctx context.Context, cfg *config.Config) bool {
	label := fmt.Sprintf("Store (%s)", cfg.StoreDriver)
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return check(label, err, "")
	}
	defer store.Close(ctx)
	return check(label, store.Ping(ctx), "reachable")
}

func checkProvider(cfg *config.Config) bool {
	registry, err := llm.NewRegistryFor(llm.ProviderConfig{
		Name:    cfg.LLMProvider,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: providerURL(cfg),
	})
	if err != nil {
		return check("LLM provider", err, "")
	}
	check("LLM provider", nil, fmt.Sprintf("%s (registered: %v)", registry.DefaultName(), registry.List()))

	if cfg.LLMProvider == "ollama" {
		return check("  Ollama", checkOllama(cfg.OllamaURL), "reachable")
	}
	if cfg.LLMAPIKey == "" {
		return check("  API key", errors.New("not set (LLM_API_KEY or OPENAI_API_KEY)"), "")
	}
	return check("  API key", nil, "set")
}

func checkEvents(cfg *config.Config) bool {
	if cfg.RabbitMQURL == "" {
		note("Events", "disabled (RABBITMQ_URL not set)")
		return true
	}
	pub, err := events.Open(cfg.RabbitMQURL)
	if err != nil {
		return check("Events", err, "")
	}
	defer pub.Close()
	return check("Events", nil, "connected")
}

func providerURL(cfg *config.Config) string {
	if cfg.LLMProvider == "ollama" {
		return cfg.OllamaURL
	}
	return ""
}

func checkOllama(url string) error {
	if url == "" {
		url = "http://localhost:11434"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/api/tags")
	if err != nil {
		return fmt.Errorf("not reachable at %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
