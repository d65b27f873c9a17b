package main

import (
	"fmt"

	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/storage/backend"
)

// cmdMigrate applies SQL migrations for the configured store
func cmdMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applied, err := backend.Migrate(cfg)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.StoreDriver, err)
	}
	if !applied {
		fmt.Printf("Store %q has no schema, nothing to migrate\n", cfg.StoreDriver)
		return nil
	}

	fmt.Printf("✓ %s migrations applied\n", cfg.StoreDriver)
	return nil
}
