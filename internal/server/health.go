package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	healthOK           = "ok"
	healthNotReady     = "not ready"
	healthShuttingDown = "shutting down"
	healthUnreachable  = "unreachable"
)

// proxyProbeTimeout bounds the proxy status call made by /healthz/detailed.
const proxyProbeTimeout = 3 * time.Second

// ProxyStatus is the part of the Exchange proxy the health checker probes.
type ProxyStatus interface {
	AuthStatus(ctx context.Context) (bool, error)
}

// HealthChecker serves the liveness, readiness and detailed health
// endpoints of the HTTP transport.
type HealthChecker struct {
	ready   atomic.Bool
	sc      *ServerContext
	proxy   ProxyStatus
	started time.Time
}

// NewHealthChecker returns a ready checker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	if sc != nil {
		h.proxy = sc.Proxy()
	}
	h.ready.Store(true)
	return h
}

// SetProxy replaces the proxy probed by the detailed endpoint.
func (h *HealthChecker) SetProxy(p ProxyStatus) {
	h.proxy = p
}

// SetReady flips readiness; serve clears it before draining connections.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness flag.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status             string `json:"status"`
	Uptime             string `json:"uptime"`
	ExchangeProxy      string `json:"exchange_proxy,omitempty"`
	ProxyAuthenticated bool   `json:"proxy_authenticated"`
	GraphAuthenticated bool   `json:"graph_authenticated"`
}

// checks evaluates the local readiness conditions. The first failing one
// decides the overall status.
func (h *HealthChecker) checks() (status string, checks map[string]string) {
	status = healthOK
	checks = map[string]string{"ready": healthOK, "shutdown": healthOK}

	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthShuttingDown
		status = healthShuttingDown
	}
	if !h.ready.Load() {
		checks["ready"] = healthNotReady
		status = healthNotReady
	}
	return status, checks
}

func httpStatus(status string) int {
	if status == healthOK {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler serves /healthz. It answers ok while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthOK})
	})
}

// ReadinessHandler serves /readyz. The Exchange proxy is not consulted: an
// unauthenticated server can still hand out authorization URLs.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.checks()
		if status == healthShuttingDown {
			status = healthNotReady
		}
		writeJSON(w, httpStatus(status), HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed. It probes the proxy
// status endpoint and reports whether a Graph token is cached.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, _ := h.checks()
		resp := DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.started).Truncate(time.Second).String(),
		}

		if h.proxy != nil {
			ctx, cancel := context.WithTimeout(r.Context(), proxyProbeTimeout)
			authenticated, err := h.proxy.AuthStatus(ctx)
			cancel()
			resp.ExchangeProxy = healthOK
			if err != nil {
				resp.ExchangeProxy = healthUnreachable
			}
			resp.ProxyAuthenticated = err == nil && authenticated
		}
		if h.sc != nil {
			resp.GraphAuthenticated = h.sc.Tokens().Authenticated(h.sc.Now())
		}
		writeJSON(w, httpStatus(status), resp)
	})
}
