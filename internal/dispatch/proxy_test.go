package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/token"
)

// fakeProxy is an in-memory stand-in for the local Exchange proxy.
type fakeProxy struct {
	mu            sync.Mutex
	authenticated bool
	statusCode    int
	routes        map[string]http.HandlerFunc
	seen          []string
}

func newFakeProxy(t *testing.T, authenticated bool) (*fakeProxy, *httptest.Server) {
	t.Helper()
	fp := &fakeProxy{authenticated: authenticated, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		fp.seen = append(fp.seen, r.Method+" "+r.URL.Path)
		h, ok := fp.routes[r.Method+" "+r.URL.Path]
		authed := fp.authenticated
		fp.mu.Unlock()

		if r.URL.Path == "/exchange/status" && !ok {
			_ = json.NewEncoder(w).Encode(map[string]bool{"authenticated": authed})
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fp, srv
}

func (fp *fakeProxy) handle(pattern string, h http.HandlerFunc) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.routes[pattern] = h
}

func (fp *fakeProxy) requests() []string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]string(nil), fp.seen...)
}

func TestNewProxy_Defaults(t *testing.T) {
	p := NewProxy("", 0)
	assert.Equal(t, DefaultProxyURL, p.BaseURL())
	assert.Equal(t, "http://localhost:8080/exchange/rooms/r1", p.URL("/rooms/r1"))
	assert.Equal(t, DefaultTimeout, p.client.Timeout)
}

func TestProxy_RequestUnauthenticatedSkipsCall(t *testing.T) {
	fp, srv := newFakeProxy(t, false)
	p := NewProxy(srv.URL+"/exchange", 0)

	assert.Nil(t, p.Request(context.Background(), http.MethodGet, "rooms", nil, nil))
	assert.Equal(t, []string{"GET /exchange/status"}, fp.requests())
}

func TestProxy_Request(t *testing.T) {
	fp, srv := newFakeProxy(t, true)
	fp.handle("GET /exchange/rooms", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("floor"))
		_, _ = io.WriteString(w, `[{"id":"r1"}]`)
	})
	fp.handle("POST /exchange/rooms/r1/book", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"m1"}`)
	})
	fp.handle("DELETE /exchange/rooms/r1/meetings/m1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	fp.handle("GET /exchange/rooms/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	p := NewProxy(srv.URL+"/exchange", 0)
	ctx := context.Background()

	got := p.Request(ctx, http.MethodGet, "rooms", url.Values{"floor": {"2"}}, nil)
	assert.Equal(t, []any{map[string]any{"id": "r1"}}, got)

	got = p.Request(ctx, http.MethodPost, "/rooms/r1/book", nil, map[string]any{"subject": "x"})
	assert.Equal(t, map[string]any{"id": "m1"}, got)

	got = p.Request(ctx, http.MethodDelete, "rooms/r1/meetings/m1", nil, nil)
	assert.Equal(t, map[string]any{"success": true}, got)

	assert.Nil(t, p.Request(ctx, http.MethodGet, "rooms/missing", nil, nil))
	assert.Nil(t, p.Request(ctx, "TRACE", "rooms", nil, nil))
}

func TestProxy_RequestTransportFailure(t *testing.T) {
	_, srv := newFakeProxy(t, true)
	base := srv.URL + "/exchange"
	srv.Close()

	p := NewProxy(base, 0)
	assert.Nil(t, p.Request(context.Background(), http.MethodGet, "rooms", nil, nil))
	assert.False(t, p.Authenticated(context.Background()))
}

func TestProxy_Envelope(t *testing.T) {
	fp, srv := newFakeProxy(t, true)
	fp.handle("GET /exchange/rooms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	fp.handle("GET /exchange/rooms/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	p := NewProxy(srv.URL+"/exchange", 0)
	ctx := context.Background()

	env := p.Envelope(ctx, http.MethodGet, "rooms", nil, nil)
	assert.Equal(t, envelope.StatusSuccess, env.Status())
	assert.Equal(t, []any{}, env["data"])

	env = p.Envelope(ctx, http.MethodGet, "rooms/bad", nil, nil)
	assert.True(t, env.IsError())
	assert.Contains(t, env.ErrorMessage(), "500")

	fp.mu.Lock()
	fp.authenticated = false
	fp.mu.Unlock()
	env = p.Envelope(ctx, http.MethodGet, "rooms", nil, nil)
	assert.Equal(t, "Not authenticated with Exchange service. Please authenticate first.", env.ErrorMessage())
}

func TestProxy_DoDoesNotFollowRedirects(t *testing.T) {
	fp, srv := newFakeProxy(t, true)
	fp.handle("GET /exchange/authorize", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://login.example.com/authorize?x=1", http.StatusFound)
	})
	p := NewProxy(srv.URL+"/exchange", 0)

	resp, err := p.Do(context.Background(), http.MethodGet, "authorize", Options{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://login.example.com/authorize?x=1", resp.Header.Get("Location"))
}

func TestProxy_DoForm(t *testing.T) {
	fp, srv := newFakeProxy(t, true)
	fp.handle("POST /exchange/callback", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "code=abc&state=xyz", string(body))
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	p := NewProxy(srv.URL+"/exchange", 0)

	resp, err := p.Do(context.Background(), http.MethodPost, "callback", Options{Form: "code=abc&state=xyz"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProxy_AsStrategy(t *testing.T) {
	fp, srv := newFakeProxy(t, true)
	fp.handle("GET /exchange/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"proxy-user"}`)
	})
	p := NewProxy(srv.URL+"/exchange", 0)

	failing := &failingStrategy{}
	d := newTestDispatcher(validTokens(), "http://unused", WithStrategies(failing), WithFallback(p))

	result, err := d.Call(context.Background(), Request{Method: http.MethodGet, Endpoint: "/me"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "proxy-user"}, result)

	_, err = p.Issue(context.Background(), token.Record{}, Request{Method: http.MethodGet, Endpoint: "/nothing"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
