package api

import (
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

const taskNotFound = "Task not found or unauthorized"

func (r *Router) tasks() storage.Collection {
	return r.app.Store.Collection(domain.CollectionTasks)
}

func (r *Router) handleListTasks(w http.ResponseWriter, req *http.Request) {
	email := req.URL.Query().Get(domain.FieldEmail)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	tasks, err := r.tasks().Find(req.Context(), storage.Filter{domain.FieldEmail: email})
	if err != nil {
		Fail(w, req, err, "Server error while fetching tasks")
		return
	}
	OK(w, orEmpty(tasks))
}

func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid task ID format")
		return
	}
	email := req.URL.Query().Get(domain.FieldEmail)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	task, err := r.tasks().FindOne(req.Context(), ownedBy(id, email))
	if err != nil {
		Fail(w, req, err, taskNotFound)
		return
	}
	OK(w, task)
}

// handleCreateTask stores the body with createdAt and completed=false.
func (r *Router) handleCreateTask(w http.ResponseWriter, req *http.Request) {
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
	doc[domain.FieldCreatedAt] = r.now().UTC()
	doc[domain.FieldCompleted] = false

	id, err := r.tasks().InsertOne(req.Context(), doc)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	r.publish(req, domain.CollectionTasks, events.ActionCreated, id, email)

	created, err := storage.Normalize(withID(doc, id))
	if err != nil {
		created = withID(doc, id)
	}
	OK(w, created)
}

// handleUpdateTask sets the body's fields on the caller's task. The email
// selects the task and is never itself updated. The updated task is read
// back without isolation from concurrent writers.
func (r *Router) handleUpdateTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid task ID format")
		return
	}
	set, err := decodeDocument(w, req)
	if err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}
	email := emailOf(set)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}
	delete(set, domain.FieldEmail)
	delete(set, storage.IDField)

	ctx := req.Context()
	res, err := r.tasks().UpdateOne(ctx, ownedBy(id, email), set)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	if res.MatchedCount == 0 {
		NotFound(w, req, taskNotFound)
		return
	}
	r.publish(req, domain.CollectionTasks, events.ActionUpdated, id, email)

	task, err := r.tasks().FindOne(ctx, ownedBy(id, email))
	if err != nil {
		Fail(w, req, err, taskNotFound)
		return
	}
	OK(w, task)
}

func (r *Router) handleDeleteTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid task ID format")
		return
	}
	email := req.URL.Query().Get(domain.FieldEmail)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	deleted, err := r.tasks().DeleteOne(req.Context(), ownedBy(id, email))
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	if deleted == 0 {
		NotFound(w, req, taskNotFound)
		return
	}
	r.publish(req, domain.CollectionTasks, events.ActionDeleted, id, email)
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: "Task deleted successfully"})
}
