// Package storage defines the schemaless document store the API handlers
// operate on. Backends live in subpackages (memory, sqlite, postgres, mongo).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/felixgeelhaar/academiax/internal/domain"
)

// IDField is the key holding a document's identifier.
const IDField = "_id"

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = fmt.Errorf("document %w", domain.ErrNotFound)

// Document is a schemaless record. Values are JSON-compatible.
type Document map[string]any

// ID returns the document identifier, or "" when unset.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Filter selects documents by top-level field equality.
type Filter map[string]any

// ByID returns a filter matching a single identifier.
func ByID(id string) Filter {
	return Filter{IDField: id}
}

// UpdateResult reports the outcome of an UpdateOne call.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// Collection is a named set of documents.
type Collection interface {
	// InsertOne stores doc and returns its identifier. An identifier is
	// generated when doc has none.
	InsertOne(ctx context.Context, doc Document) (string, error)
	// Find returns every matching document in insertion order.
	Find(ctx context.Context, filter Filter) ([]Document, error)
	// FindOne returns the first matching document or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	// UpdateOne applies set as a field-level merge to the first match.
	UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error)
	// DeleteOne removes the first match and returns how many were removed.
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
}

// Store hands out collections over one backend connection.
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewID returns a fresh 24-character hexadecimal identifier.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed identifier.
func ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

// Normalize converts doc into its JSON data model: numbers become float64,
// times become RFC 3339 strings, nested values become maps and slices.
// Every backend stores normalized documents so reads look the same
// regardless of driver.
func Normalize(doc Document) (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if out == nil {
		out = Document{}
	}
	return out, nil
}

// Matches reports whether doc satisfies every field of the filter.
func (f Filter) Matches(doc Document) bool {
	for key, want := range f {
		got, ok := doc[key]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares two document values after normalizing numeric and time
// representations.
func Equal(a, b any) bool {
	a, b = scalar(a), scalar(b)
	if af, ok := a.(float64); ok {
		bf, ok := b.(float64)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return v
		}
		return f
	case time.Time:
		return n.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Merge applies set onto doc, skipping the identifier. It reports whether any
// field changed.
func Merge(doc, set Document) bool {
	changed := false
	for key, value := range set {
		if key == IDField {
			continue
		}
		current, ok := doc[key]
		if !ok || !Equal(current, value) {
			changed = true
		}
		doc[key] = value
	}
	return changed
}
