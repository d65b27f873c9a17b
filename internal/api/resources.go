package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

var errEmptyBody = errors.New("request body is empty")

// decodeDocument reads the request body as a JSON object.
func decodeDocument(w http.ResponseWriter, req *http.Request) (storage.Document, error) {
	var doc storage.Document
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyBody
		}
		return nil, err
	}
	if doc == nil {
		return nil, errEmptyBody
	}
	return doc, nil
}

// decodeInto reads the request body into v. An empty body leaves v zero.
func decodeInto(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// emailOf returns the string email field of doc, or "".
func emailOf(doc storage.Document) string {
	email, _ := doc[domain.FieldEmail].(string)
	return email
}

// pathID returns the {id} path value when it is a well-formed identifier.
func pathID(req *http.Request) (string, bool) {
	id := req.PathValue("id")
	return id, storage.ValidID(id)
}

// orEmpty keeps empty results encoding as [] rather than being dropped.
func orEmpty(docs []storage.Document) []storage.Document {
	if docs == nil {
		return []storage.Document{}
	}
	return docs
}

// withID returns a copy of doc carrying id.
func withID(doc storage.Document, id string) storage.Document {
	out := make(storage.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[storage.IDField] = id
	return out
}

// insertResult mirrors the document driver's insertOne acknowledgement.
type insertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// updateResult mirrors the document driver's updateOne acknowledgement.
type updateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

// deleteResult mirrors the document driver's deleteOne acknowledgement.
type deleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// ownedBy matches the document with id only when email owns it.
func ownedBy(id, email string) storage.Filter {
	return storage.Filter{storage.IDField: id, domain.FieldEmail: email}
}
