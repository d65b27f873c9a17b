package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/academiax/internal/config"
)

// Policy is the access rule of one route.
type Policy struct {
	// RequiresAuth runs the session gate before the handler.
	RequiresAuth bool
	// RequiresOwnershipMatch additionally demands that the request's email
	// equals the token identity. It implies RequiresAuth.
	RequiresOwnershipMatch bool
	// OwnerFrom names where the email is read: config.OwnerFromQuery or
	// config.OwnerFromBody. Empty picks query for GET and DELETE, body
	// otherwise.
	OwnerFrom string
}

// ownerSource resolves OwnerFrom for method.
func (p Policy) ownerSource(method string) string {
	if p.OwnerFrom != "" {
		return p.OwnerFrom
	}
	switch method {
	case http.MethodGet, http.MethodDelete:
		return config.OwnerFromQuery
	default:
		return config.OwnerFromBody
	}
}

// Route binds a mux pattern to a handler and its policy.
type Route struct {
	Pattern string
	Policy  Policy
	Handler http.HandlerFunc
}

// Method returns the HTTP method of the pattern.
func (rt Route) Method() string {
	method, _, _ := strings.Cut(rt.Pattern, " ")
	return method
}

var (
	public = Policy{}
	authed = Policy{RequiresAuth: true}
	owner  = Policy{RequiresAuth: true, RequiresOwnershipMatch: true, OwnerFrom: config.OwnerFromQuery}
)

// routeTable lists every resource route with its default policy. The
// defaults reproduce the deployed frontend contract: only listing classes,
// budgets and tasks is gated, along with every read by id.
func (r *Router) routeTable() []Route {
	return []Route{
		{"POST /jwt", public, r.handleIssueToken},
		{"POST /logout", public, r.handleLogout},

		{"GET /users", public, r.handleListUsers},
		{"POST /users", public, r.handleCreateUser},

		{"GET /class", owner, r.handleListClasses},
		{"GET /class/{id}", owner, r.handleGetClass},
		{"POST /class", public, r.handleCreateClass},
		{"DELETE /class/{id}", public, r.handleDeleteClass},

		{"GET /budgets", authed, r.handleListBudgets},
		{"GET /budgets/{id}", owner, r.handleGetBudget},
		{"POST /budgets", public, r.handleCreateBudget},
		{"PUT /budgets/{id}", public, r.handleUpdateBudget},
		{"PATCH /budgets/{id}", public, r.handleUpdateBudget},
		{"DELETE /budgets/{id}", public, r.handleDeleteBudget},

		{"GET /tasks", owner, r.handleListTasks},
		{"GET /tasks/{id}", owner, r.handleGetTask},
		{"POST /tasks", public, r.handleCreateTask},
		{"PUT /tasks/{id}", public, r.handleUpdateTask},
		{"DELETE /tasks/{id}", public, r.handleDeleteTask},

		{"GET /questions", public, r.handleListQuestions},
		{"POST /generate-questions", public, r.handleGenerateQuestions},
		{"POST /ai-chat", public, r.handleChat},
	}
}

// ApplyOverrides returns routes with the configured policy changes. An
// override naming an unknown pattern is an error so typos do not silently
// leave a route open.
func ApplyOverrides(routes []Route, overrides map[string]config.RouteOverride) ([]Route, error) {
	index := make(map[string]int, len(routes))
	for i, rt := range routes {
		index[rt.Pattern] = i
	}

	out := make([]Route, len(routes))
	copy(out, routes)

	for pattern, o := range overrides {
		i, ok := index[pattern]
		if !ok {
			return nil, fmt.Errorf("route policy: unknown route %q", pattern)
		}
		p := out[i].Policy
		if o.RequiresAuth != nil {
			p.RequiresAuth = *o.RequiresAuth
		}
		if o.RequiresOwnershipMatch != nil {
			p.RequiresOwnershipMatch = *o.RequiresOwnershipMatch
		}
		if o.OwnerFrom != "" {
			p.OwnerFrom = o.OwnerFrom
		}
		if p.RequiresOwnershipMatch {
			p.RequiresAuth = true
		}
		out[i].Policy = p
	}
	return out, nil
}
