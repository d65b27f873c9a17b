package api

import (
	"errors"
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

func (r *Router) users() storage.Collection {
	return r.app.Store.Collection(domain.CollectionUsers)
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.users().Find(req.Context(), storage.Filter{})
	if err != nil {
		Fail(w, req, err, "Failed to fetch users")
		return
	}
	if len(users) == 0 {
		NotFound(w, req, "No users found")
		return
	}
	OK(w, users)
}

// handleCreateUser inserts a user unless one with the same email exists, in
// which case the stored record is returned unchanged.
func (r *Router) handleCreateUser(w http.ResponseWriter, req *http.Request) {
	doc, err := decodeDocument(w, req)
	if err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}
	email := emailOf(doc)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	ctx := req.Context()
	existing, err := r.users().FindOne(ctx, storage.Filter{domain.FieldEmail: email})
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: "User exists", Data: existing})
		return
	case !errors.Is(err, storage.ErrNotFound):
		Fail(w, req, err, "Failed to create user")
		return
	}

	now := r.now().UTC()
	delete(doc, storage.IDField)
	doc[domain.FieldCreatedAt] = now
	doc[domain.FieldLastLogIn] = now

	id, err := r.users().InsertOne(ctx, doc)
	if err != nil {
		Fail(w, req, err, "Failed to create user")
		return
	}
	r.publish(req, domain.CollectionUsers, events.ActionCreated, id, email)

	created, err := storage.Normalize(withID(doc, id))
	if err != nil {
		created = withID(doc, id)
	}
	OK(w, created)
}
