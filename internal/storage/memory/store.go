// Package memory is an in-process document store used for development and
// tests. Documents are normalized on write the same way the SQL backends do.
package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/academiax/internal/storage"
)

// Store holds collections in memory. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) storage.Collection {
	return s.collection(name)
}

func (s *Store) collection(name string) *Collection {
	s.mu.RLock()
	c, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c
	}
	c = &Collection{}
	s.collections[name] = c
	return c
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}

// Collection is an ordered slice of documents guarded by a mutex.
type Collection struct {
	mu   sync.RWMutex
	docs []storage.Document
}

var _ storage.Collection = (*Collection)(nil)

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Collection) InsertOne(ctx context.Context, doc storage.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored, err := storage.Normalize(doc)
	if err != nil {
		return "", err
	}
	id := stored.ID()
	if id == "" {
		id = storage.NewID()
		stored[storage.IDField] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, stored)
	return id, nil
}

func (c *Collection) Find(ctx context.Context, filter storage.Filter) ([]storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]storage.Document, 0)
	for _, doc := range c.docs {
		if filter.Matches(doc) {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func (c *Collection) FindOne(ctx context.Context, filter storage.Filter) (storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.index(filter); i >= 0 {
		return clone(c.docs[i]), nil
	}
	return nil, storage.ErrNotFound
}

func (c *Collection) UpdateOne(ctx context.Context, filter storage.Filter, set storage.Document) (storage.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.UpdateResult{}, err
	}
	changes, err := storage.Normalize(set)
	if err != nil {
		return storage.UpdateResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(filter)
	if i < 0 {
		return storage.UpdateResult{}, nil
	}
	result := storage.UpdateResult{MatchedCount: 1}
	if storage.Merge(c.docs[i], changes) {
		result.ModifiedCount = 1
	}
	return result, nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter storage.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(filter)
	if i < 0 {
		return 0, nil
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return 1, nil
}

// index must be called with the lock held.
func (c *Collection) index(filter storage.Filter) int {
	for i, doc := range c.docs {
		if filter.Matches(doc) {
			return i
		}
	}
	return -1
}

// clone copies the top level; nested values are never mutated in place.
func clone(doc storage.Document) storage.Document {
	out := make(storage.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
