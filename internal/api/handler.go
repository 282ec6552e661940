package api

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/chainscope/analytics-gateway/internal/ai"
	"github.com/chainscope/analytics-gateway/internal/alerts"
	"github.com/chainscope/analytics-gateway/internal/audit"
	"github.com/chainscope/analytics-gateway/internal/auth"
	"github.com/chainscope/analytics-gateway/internal/notify"
	"github.com/chainscope/analytics-gateway/internal/ratelimit"
	"github.com/chainscope/analytics-gateway/internal/translate"
	"github.com/gorilla/mux"
)

const maxQueryLength = 2000

// EventStore executes generated aggregate queries against the indexer's
// database. May be absent when no DATABASE_URL is configured.
type EventStore interface {
	QueryScalar(ctx context.Context, sql string) (float64, error)
}

type Handler struct {
	translator *translate.Translator
	auditLog   *audit.Log
	limiter    *ratelimit.Limiter
	notifier   *notify.Router
	aiClient   *ai.Client
	store      EventStore // nil when unconfigured
	alertFeed  *alerts.Feed
	startTime  time.Time

	requestsTotal  atomic.Uint64
	rateLimited    atomic.Uint64
	translated     atomic.Uint64
	untranslatable atomic.Uint64
	alertsRaised   atomic.Uint64
}

func NewHandler(
	translator *translate.Translator,
	auditLog *audit.Log,
	limiter *ratelimit.Limiter,
	notifier *notify.Router,
	aiClient *ai.Client,
	store EventStore,
	alertFeed *alerts.Feed,
) *Handler {
	return &Handler{
		translator: translator,
		auditLog:   auditLog,
		limiter:    limiter,
		notifier:   notifier,
		aiClient:   aiClient,
		store:      store,
		alertFeed:  alertFeed,
		startTime:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/status", h.Status).Methods("GET")

	router.HandleFunc("/ask", h.Ask).Methods("POST")
	router.HandleFunc("/alerts", h.Alerts).Methods("GET")
	router.HandleFunc("/metrics", h.Metrics).Methods("GET")
	router.HandleFunc("/flows", h.Flows).Methods("GET")
	router.HandleFunc("/anomaly", h.Anomaly).Methods("POST")
	router.HandleFunc("/label", h.Label).Methods("POST")
	router.HandleFunc("/notify", h.Notify).Methods("POST")
	router.HandleFunc("/forecast", h.Forecast).Methods("POST")
	router.HandleFunc("/risk", h.Risk).Methods("POST")
}

// RateLimit charges one request against the caller's window. Runs after
// tenant and role resolution so the key can be the tenant id; the window is
// charged even for requests a handler later rejects.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.requestsTotal.Add(1)

		if auth.Bypassed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := rateLimitKey(r)
		if !h.limiter.Allow(key, time.Now()) {
			h.rateLimited.Add(1)
			log.Printf("🚫 Rate limit exceeded for key %s", key)
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateLimitKey(r *http.Request) string {
	if tenantID, ok := auth.TenantFromContext(r.Context()); ok {
		return tenantID
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return ratelimit.AnonymousKey
}

// requireRole rejects the request unless the resolved role is one of the
// allowed ones. A missing role is a rejection too.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) (string, bool) {
	role, ok := auth.RoleFromContext(r.Context())
	if ok {
		for _, a := range allowed {
			if role == a {
				return role, true
			}
		}
	}

	log.Printf("⛔ Role %q not permitted for %s %s", role, r.Method, r.URL.Path)
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient role"})
	return role, false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
