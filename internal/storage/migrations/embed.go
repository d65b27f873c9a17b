// Package migrations embeds the SQL schema for the relational document
// backends and exposes it as a golang-migrate source.
package migrations

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// FS embeds the migration files, one directory per SQL dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dialects with embedded migrations.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Source returns a migration source for dialect.
func Source(dialect string) (source.Driver, error) {
	switch dialect {
	case SQLite, Postgres:
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	src, err := iofs.New(FS, dialect)
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return src, nil
}
