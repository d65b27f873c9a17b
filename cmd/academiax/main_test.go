package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/config"
)

func TestMintToken(t *testing.T) {
	cfg := &config.Config{TokenSecret: "cli-secret", TokenTTL: time.Hour}

	token, expiresAt, err := mintToken(cfg, "a@x.io")
	if err != nil {
		t.Fatalf("mintToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt = %s, want in the future", expiresAt)
	}

	verifier, err := auth.NewVerifier([]byte("cli-secret"))
	if err != nil {
		t.Fatal(err)
	}
	id, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Email != "a@x.io" {
		t.Errorf("Email = %q, want a@x.io", id.Email)
	}
}

func TestMintToken_EmptySecret(t *testing.T) {
	cfg := &config.Config{TokenTTL: time.Hour}
	if _, _, err := mintToken(cfg, "a@x.io"); err == nil {
		t.Error("expected error for an empty secret")
	}
}

func TestProviderURL(t *testing.T) {
	cfg := &config.Config{LLMProvider: "ollama", OllamaURL: "http://gpu:11434"}
	if got := providerURL(cfg); got != "http://gpu:11434" {
		t.Errorf("providerURL(ollama) = %q", got)
	}
	cfg.LLMProvider = "openai"
	if got := providerURL(cfg); got != "" {
		t.Errorf("providerURL(openai) = %q, want empty", got)
	}
}

func TestCheck(t *testing.T) {
	if !check("Store", nil, "reachable") {
		t.Error("check(nil) should pass")
	}
	if check("Store", errors.New("refused"), "") {
		t.Error("check(err) should fail")
	}
}

func TestCheckOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := checkOllama(srv.URL); err == nil {
		t.Error("expected error for a 503 answer")
	}
}
