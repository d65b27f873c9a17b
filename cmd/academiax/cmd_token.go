package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/config"
)

// cmdToken prints a session token for an email, for scripting against a
// running server with curl --cookie "token=...".
func cmdToken(args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("usage: academiax token <email>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	token, expiresAt, err := mintToken(cfg, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}

	fmt.Println(token)
	// Keep $(academiax token ...) output to the bare token
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintf(os.Stderr, "# expires %s\n", expiresAt.Format(time.RFC3339))
	}
	return nil
}

func mintToken(cfg *config.Config, email string) (string, time.Time, error) {
	issuer, err := auth.NewIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("init issuer: %w", err)
	}
	return issuer.Issue(email)
}
