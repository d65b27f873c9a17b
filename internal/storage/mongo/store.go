// Package mongo is the MongoDB document store backend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/felixgeelhaar/academiax/internal/storage"
)

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "CollageDB"

// Store wraps a connected client and one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// Connect dials uri with the stable server API and selects database.
// The driver connects lazily; call Ping to check reachability.
func Connect(uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Collection(name string) storage.Collection {
	return &collection{coll: s.db.Collection(name)}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) InsertOne(ctx context.Context, doc storage.Document) (string, error) {
	record := make(bson.M, len(doc)+1)
	for k, v := range doc {
		record[k] = v
	}

	id := bson.NewObjectID()
	if hex := doc.ID(); hex != "" {
		parsed, err := bson.ObjectIDFromHex(hex)
		if err != nil {
			return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
		}
		id = parsed
	}
	record[storage.IDField] = id

	if _, err := c.coll.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return id.Hex(), nil
}

func (c *collection) Find(ctx context.Context, filter storage.Filter) ([]storage.Document, error) {
	q, ok := query(filter)
	if !ok {
		return []storage.Document{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: storage.IDField, Value: 1}})
	cursor, err := c.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.coll.Name(), err)
	}

	var records []bson.M
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", c.coll.Name(), err)
	}

	out := make([]storage.Document, 0, len(records))
	for _, r := range records {
		out = append(out, toDocument(r))
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter storage.Filter) (storage.Document, error) {
	q, ok := query(filter)
	if !ok {
		return nil, storage.ErrNotFound
	}

	var record bson.M
	err := c.coll.FindOne(ctx, q).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", c.coll.Name(), err)
	}
	return toDocument(record), nil
}

func (c *collection) UpdateOne(ctx context.Context, filter storage.Filter, set storage.Document) (storage.UpdateResult, error) {
	q, ok := query(filter)
	if !ok {
		return storage.UpdateResult{}, nil
	}

	fields := make(bson.M, len(set))
	for k, v := range set {
		if k == storage.IDField {
			continue
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		n, err := c.coll.CountDocuments(ctx, q, options.Count().SetLimit(1))
		if err != nil {
			return storage.UpdateResult{}, fmt.Errorf("update %s: %w", c.coll.Name(), err)
		}
		return storage.UpdateResult{MatchedCount: n}, nil
	}

	res, err := c.coll.UpdateOne(ctx, q, bson.M{"$set": fields})
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}
	return storage.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter storage.Filter) (int64, error) {
	q, ok := query(filter)
	if !ok {
		return 0, nil
	}

	res, err := c.coll.DeleteOne(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

// query converts a filter into a BSON query. The identifier is matched as an
// ObjectID; ok is false when it cannot be one, so nothing can match.
func query(filter storage.Filter) (bson.M, bool) {
	q := make(bson.M, len(filter))
	for k, v := range filter {
		if k == storage.IDField {
			hex, isString := v.(string)
			if !isString {
				q[k] = v
				continue
			}
			id, err := bson.ObjectIDFromHex(hex)
			if err != nil {
				return nil, false
			}
			q[k] = id
			continue
		}
		q[k] = v
	}
	return q, true
}

func toDocument(record bson.M) storage.Document {
	doc := make(storage.Document, len(record))
	for k, v := range record {
		doc[k] = normalize(v)
	}
	return doc
}

// normalize maps BSON values onto the JSON data model the SQL backends use.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	default:
		return v
	}
}
