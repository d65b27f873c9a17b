package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/llm"
	"github.com/felixgeelhaar/academiax/internal/storage"
	"github.com/felixgeelhaar/academiax/internal/storage/memory"
)

const testSecret = "test-secret"

type fakeProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		types = append(types, evt.Type)
	}
	return types
}

type failingPingStore struct {
	*memory.Store
}

func (failingPingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

type testEnv struct {
	t         *testing.T
	app       *App
	handler   http.Handler
	store     *memory.Store
	provider  *fakeProvider
	publisher *recordingPublisher
}

func testConfig() *config.Config {
	return &config.Config{
		Port:        3000,
		Env:         config.EnvDevelopment,
		CORSOrigins: []string{"http://localhost:5173"},
		TokenSecret: testSecret,
		TokenTTL:    time.Hour,
		StoreDriver: config.StoreMemory,
	}
}

func newTestEnv(t *testing.T, overrides map[string]config.RouteOverride) *testEnv {
	t.Helper()

	env := &testEnv{
		t:         t,
		store:     memory.New(),
		provider:  &fakeProvider{},
		publisher: &recordingPublisher{},
	}

	app, err := NewApp(AppConfig{
		Config:    testConfig(),
		Store:     env.store,
		Provider:  env.provider,
		Publisher: env.publisher,
	})
	require.NoError(t, err)
	if overrides != nil {
		app.Overrides = overrides
	}
	t.Cleanup(func() { app.Close(context.Background()) })

	handler, err := NewRouter(app)
	require.NoError(t, err)

	env.app = app
	env.handler = handler
	return env
}

// token issues a session token for email.
func (e *testEnv) token(email string) string {
	e.t.Helper()
	token, _, err := e.app.Issuer.Issue(email)
	require.NoError(e.t, err)
	return token
}

// do serves one request. A non-empty token is sent as the session cookie.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) count(collection string) int {
	return e.store.Collection(collection).(*memory.Collection).Len()
}

func (e *testEnv) seed(collection string, doc storage.Document) string {
	e.t.Helper()
	id, err := e.store.Collection(collection).InsertOne(context.Background(), doc)
	require.NoError(e.t, err)
	return id
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %s", rec.Body.String())
	return data
}

func listOf(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	list, ok := decodeBody(t, rec)["data"].([]any)
	require.True(t, ok, "data is not a list: %s", rec.Body.String())
	return list
}

// tamper flips the first character of the signature segment.
func tamper(token string) string {
	i := strings.LastIndex(token, ".") + 1
	replacement := "A"
	if token[i] == 'A' {
		replacement = "B"
	}
	return token[:i] + replacement + token[i+1:]
}

func boolPtr(b bool) *bool { return &b }

func newRequest(method, path, body string) *http.Request {
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
