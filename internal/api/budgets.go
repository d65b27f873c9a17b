package api

import (
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

func (r *Router) budgets() storage.Collection {
	return r.app.Store.Collection(domain.CollectionBudgets)
}

// handleListBudgets answers with a bare array, filtered by email when given.
func (r *Router) handleListBudgets(w http.ResponseWriter, req *http.Request) {
	filter := storage.Filter{}
	if email := req.URL.Query().Get(domain.FieldEmail); email != "" {
		filter[domain.FieldEmail] = email
	}

	budgets, err := r.budgets().Find(req.Context(), filter)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	WriteJSON(w, http.StatusOK, orEmpty(budgets))
}

func (r *Router) handleGetBudget(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid budget ID format")
		return
	}
	email := req.URL.Query().Get(domain.FieldEmail)
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	budget, err := r.budgets().FindOne(req.Context(), ownedBy(id, email))
	if err != nil {
		Fail(w, req, err, "Budget not found")
		return
	}
	OK(w, budget)
}

func (r *Router) handleCreateBudget(w http.ResponseWriter, req *http.Request) {
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

	id, err := r.budgets().InsertOne(req.Context(), doc)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	r.publish(req, domain.CollectionBudgets, events.ActionCreated, id, email)
	OK(w, insertResult{Acknowledged: true, InsertedID: id})
}

// handleUpdateBudget serves both PUT and PATCH: the body's fields are set on
// the budget, the identifier excluded.
func (r *Router) handleUpdateBudget(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid budget ID format")
		return
	}
	set, err := decodeDocument(w, req)
	if err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}
	delete(set, storage.IDField)

	res, err := r.budgets().UpdateOne(req.Context(), storage.ByID(id), set)
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	if res.MatchedCount == 0 {
		NotFound(w, req, "Budget not found")
		return
	}
	r.publish(req, domain.CollectionBudgets, events.ActionUpdated, id, emailOf(set))
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Budget updated successfully",
		Data: updateResult{
			Acknowledged:  true,
			MatchedCount:  res.MatchedCount,
			ModifiedCount: res.ModifiedCount,
		},
	})
}

func (r *Router) handleDeleteBudget(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		BadRequest(w, req, "Invalid budget ID format")
		return
	}

	deleted, err := r.budgets().DeleteOne(req.Context(), storage.ByID(id))
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	if deleted == 0 {
		NotFound(w, req, "Budget not found")
		return
	}
	r.publish(req, domain.CollectionBudgets, events.ActionDeleted, id, "")
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Budget deleted successfully",
		Data:    deleteResult{Acknowledged: true, DeletedCount: deleted},
	})
}
