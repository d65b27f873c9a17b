package api

import (
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

func (r *Router) classes() storage.Collection {
	return r.app.Store.Collection(domain.CollectionClasses)
}

func (r *Router) handleListClasses(w http.ResponseWriter, req *http.Request) {
	filter := storage.Filter{}
	if email := req.URL.Query().Get(domain.FieldEmail); email != "" {
		filter[domain.FieldEmail] = email
	}

	classes, err := r.classes().Find(req.Context(), filter)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	OK(w, orEmpty(classes))
}

func (r *Router) handleGetClass(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid class ID format")
		return
	}
	email := req.URL.Query().Get(domain.FieldEmail)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	class, err := r.classes().FindOne(req.Context(), ownedBy(id, email))
	if err != nil {
		Fail(w, req, err, "Class not found")
		return
	}
	OK(w, class)
}

func (r *Router) handleCreateClass(w http.ResponseWriter, req *http.Request) {
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
	delete(doc, storage.IDField)

	id, err := r.classes().InsertOne(req.Context(), doc)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	r.publish(req, domain.CollectionClasses, events.ActionCreated, id, email)
	OK(w, withID(doc, id))
}

// handleDeleteClass answers with the raw delete acknowledgement, plus a 404
// when nothing matched.
func (r *Router) handleDeleteClass(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid class ID format")
		return
	}

	deleted, err := r.classes().DeleteOne(req.Context(), storage.ByID(id))
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	if deleted == 0 {
		NotFound(w, req, "Class not found")
		return
	}
	r.publish(req, domain.CollectionClasses, events.ActionDeleted, id, "")
	WriteJSON(w, http.StatusOK, deleteResult{Acknowledged: true, DeletedCount: deleted})
}
