package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProxy struct {
	authenticated bool
	err           error
}

func (s stubProxy) AuthStatus(context.Context) (bool, error) {
	return s.authenticated, s.err
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)
	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		shutdown bool
		want     int
	}{
		{name: "ready", ready: true, want: http.StatusOK},
		{name: "not ready", ready: false, want: http.StatusServiceUnavailable},
		{name: "shutting down", ready: true, shutdown: true, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := NewServerContext(context.Background(), Options{Config: testConfig(t)})
			require.NoError(t, err)
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}

			h := NewHealthChecker(sc)
			h.SetReady(tt.ready)

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.want, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Checks, 2)
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	tests := []struct {
		name      string
		proxy     ProxyStatus
		wantProxy string
		wantAuth  bool
	}{
		{name: "authenticated proxy", proxy: stubProxy{authenticated: true}, wantProxy: "ok", wantAuth: true},
		{name: "unauthenticated proxy", proxy: stubProxy{}, wantProxy: "ok"},
		{name: "unreachable proxy", proxy: stubProxy{err: errors.New("connection refused")}, wantProxy: "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(nil)
			h.SetProxy(tt.proxy)

			rec := httptest.NewRecorder()
			h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp DetailedHealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.wantProxy, resp.ExchangeProxy)
			assert.Equal(t, tt.wantAuth, resp.ProxyAuthenticated)
			assert.False(t, resp.GraphAuthenticated)
		})
	}
}

func TestDetailedHealthHandler_NotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
