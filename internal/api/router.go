package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/academiax/internal/api/middleware"
	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/metrics"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux    *http.ServeMux
	app    *App
	routes []Route
	cookie auth.CookieOptions
	now    func() time.Time
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) (http.Handler, error) {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
		cookie: auth.CookieOptions{
			Production: app.Config.Production(),
			TTL:        app.Issuer.TTL(),
		},
		now: time.Now,
	}

	routes, err := ApplyOverrides(r.routeTable(), app.Overrides)
	if err != nil {
		return nil, err
	}
	r.routes = routes

	trusted, err := middleware.ParseTrustedProxies(app.Config.TrustedProxies)
	if err != nil {
		return nil, err
	}

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux, trusted), nil
}

func (r *Router) registerRoutes() {
	// Infrastructure
	r.mux.HandleFunc("GET /{$}", r.handleRoot)
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)
	r.mux.Handle("GET /metrics", metrics.Handler(r.app.Gatherer))

	for _, rt := range r.routes {
		r.mux.HandleFunc(rt.Pattern, r.gate(rt.Policy, rt.Handler))
		slog.Debug("route registered",
			"pattern", rt.Pattern,
			"auth", rt.Policy.RequiresAuth,
			"ownership", rt.Policy.RequiresOwnershipMatch)
	}
}

func (r *Router) buildMiddlewareChain(handler http.Handler, trusted []*net.IPNet) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.CORS(r.app.Config.CORSOrigins),
		middleware.RequestID,
		middleware.Logger,
	}

	if rpm := r.app.Config.RateLimitRPM; rpm > 0 {
		limiter := middleware.NewRateLimiter(rpm, rpm)
		limiter.TrustProxies(trusted)
		r.app.closers = append(r.app.closers, func() error {
			limiter.Stop()
			return nil
		})
		chain = append(chain, limiter.Middleware)
	}

	chain = append(chain, middleware.Recovery, middleware.Metrics(r.app.Metrics))
	return middleware.Chain(handler, chain...)
}

// Routes returns the effective route table.
func (r *Router) Routes() []Route {
	return r.routes
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Server is running"))
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   r.now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if err := r.app.Store.Ping(ctx); err != nil {
		slog.Error("store health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"store": "unhealthy",
			},
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"store": "healthy",
		},
	})
}

// publish emits a change event without failing the request.
func (r *Router) publish(req *http.Request, collection, action, id, email string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
	defer cancel()

	if err := r.app.Events.Publish(ctx, events.New(collection, action, id, email)); err != nil {
		r.app.Metrics.RecordEventPublish(metrics.OutcomeError)
		slog.Warn("event publish failed",
			"collection", collection,
			"action", action,
			"id", id,
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		return
	}
	r.app.Metrics.RecordEventPublish(metrics.OutcomeSuccess)
}
