package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/academiax/internal/storage"
)

// Store keeps every collection in one documents table. Field filters are
// evaluated in Go after narrowing by collection and identifier.
type Store struct {
	db *DB
}

var _ storage.Store = (*Store)(nil)

// NewStore opens path, applies migrations and returns a ready store.
func NewStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Collection(name string) storage.Collection {
	return &collection{db: s.db, name: name}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type collection struct {
	db   *DB
	name string
}

type row struct {
	id  string
	doc storage.Document
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

	raw, err := encode(stored)
	if err != nil {
		return "", err
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`,
		c.name, id, raw,
	)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *collection) Find(ctx context.Context, filter storage.Filter) ([]storage.Document, error) {
	rows, err := c.scan(ctx, c.db, filter)
	if err != nil {
		return nil, err
	}
	out := make([]storage.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.doc)
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter storage.Filter) (storage.Document, error) {
	rows, err := c.scan(ctx, c.db, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return rows[0].doc, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter storage.Filter, set storage.Document) (storage.UpdateResult, error) {
	changes, err := storage.Normalize(set)
	if err != nil {
		return storage.UpdateResult{}, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	rows, err := c.scan(ctx, tx, filter)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	if len(rows) == 0 {
		return storage.UpdateResult{}, nil
	}

	target := rows[0]
	result := storage.UpdateResult{MatchedCount: 1}
	if !storage.Merge(target.doc, changes) {
		return result, tx.Commit()
	}

	raw, err := encode(target.doc)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET doc = ?, updated_at = datetime('now') WHERE collection = ? AND id = ?`,
		raw, c.name, target.id,
	)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("update %s: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return storage.UpdateResult{}, fmt.Errorf("commit update: %w", err)
	}

	result.ModifiedCount = 1
	return result, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter storage.Filter) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := c.scan(ctx, tx, filter)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		c.name, rows[0].id,
	)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return n, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scan loads the collection's matching rows in insertion order.
func (c *collection) scan(ctx context.Context, q querier, filter storage.Filter) ([]row, error) {
	query := `SELECT id, doc FROM documents WHERE collection = ?`
	args := []any{c.name}
	if id, ok := filter[storage.IDField].(string); ok {
		query += ` AND id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY seq`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var (
			id  string
			raw pqtype.NullRawMessage
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if filter.Matches(doc) {
			out = append(out, row{id: id, doc: doc})
		}
	}
	return out, rows.Err()
}

func encode(doc storage.Document) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("encode document: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

func decode(raw pqtype.NullRawMessage) (storage.Document, error) {
	doc := storage.Document{}
	if !raw.Valid {
		return doc, nil
	}
	if err := json.Unmarshal(raw.RawMessage, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
