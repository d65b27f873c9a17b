// Package postgres stores documents as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/academiax/internal/storage"
)

// Store keeps every collection in one documents table keyed by
// (collection, id). Field filters use JSONB containment.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Open connects to databaseURL and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(pool), nil
}

// NewStore wraps an existing pool. The schema must already be migrated.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Collection(name string) storage.Collection {
	return &collection{pool: s.pool, name: name}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

type collection struct {
	pool *pgxpool.Pool
	name string
}

func (c *collection) InsertOne(ctx context.Context, doc storage.Document) (string, error) {
	stored, err := storage.Normalize(doc)
	if err != nil {
		return "", err
	}
	id := stored.ID()
	if id == "" {
		id = storage.NewID()
		stored[storage.IDField] = id
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3::jsonb)
	`
	if _, err := c.pool.Exec(ctx, query, c.name, id, data); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *collection) Find(ctx context.Context, filter storage.Filter) ([]storage.Document, error) {
	match, err := containment(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT doc FROM documents
		WHERE collection = $1 AND doc @> $2::jsonb
		ORDER BY seq
	`
	rows, err := c.pool.Query(ctx, query, c.name, match)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer rows.Close()

	out := make([]storage.Document, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (c *collection) FindOne(ctx context.Context, filter storage.Filter) (storage.Document, error) {
	match, err := containment(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT doc FROM documents
		WHERE collection = $1 AND doc @> $2::jsonb
		ORDER BY seq LIMIT 1
	`
	var data []byte
	err = c.pool.QueryRow(ctx, query, c.name, match).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	return decode(data)
}

func (c *collection) UpdateOne(ctx context.Context, filter storage.Filter, set storage.Document) (storage.UpdateResult, error) {
	match, err := containment(filter)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	changes, err := storage.Normalize(set)
	if err != nil {
		return storage.UpdateResult{}, err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		seq  int64
		data []byte
	)
	query := `
		SELECT seq, doc FROM documents
		WHERE collection = $1 AND doc @> $2::jsonb
		ORDER BY seq LIMIT 1
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, c.name, match).Scan(&seq, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.UpdateResult{}, nil
	}
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("select for update: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	result := storage.UpdateResult{MatchedCount: 1}
	if !storage.Merge(doc, changes) {
		return result, tx.Commit(ctx)
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("encode document: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE documents SET doc = $1::jsonb, updated_at = now() WHERE seq = $2`, updated, seq); err != nil {
		return storage.UpdateResult{}, fmt.Errorf("update %s: %w", c.name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storage.UpdateResult{}, fmt.Errorf("commit update: %w", err)
	}

	result.ModifiedCount = 1
	return result, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter storage.Filter) (int64, error) {
	match, err := containment(filter)
	if err != nil {
		return 0, err
	}

	query := `
		DELETE FROM documents WHERE seq = (
			SELECT seq FROM documents
			WHERE collection = $1 AND doc @> $2::jsonb
			ORDER BY seq LIMIT 1
		)
	`
	tag, err := c.pool.Exec(ctx, query, c.name, match)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.name, err)
	}
	return tag.RowsAffected(), nil
}

// containment encodes filter as a JSONB document for the @> operator.
func containment(filter storage.Filter) ([]byte, error) {
	normalized, err := storage.Normalize(storage.Document(filter))
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func decode(data []byte) (storage.Document, error) {
	doc := storage.Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
