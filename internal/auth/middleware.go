package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

type contextKey string

const (
	tenantContextKey contextKey = "tenant"
	roleContextKey   contextKey = "role"
)

// TenantHeader and RoleHeader are the request headers consumed by the
// resolution middleware.
const (
	TenantHeader = "X-Tenant-ID"
	RoleHeader   = "X-User-Role"

	TenantQueryParam = "tenant"

	// DevTenant is assumed when no tenant is supplied and the gateway runs
	// in development mode.
	DevTenant = "dev"
)

// bypassPrefixes skip tenant resolution entirely and proceed
// unauthenticated.
var bypassPrefixes = []string{"/status", "/health", "/docs", "/auth"}

type Middleware struct {
	jwtSecret string
	devMode   bool
}

func NewMiddleware(jwtSecret string, devMode bool) *Middleware {
	return &Middleware{jwtSecret: jwtSecret, devMode: devMode}
}

// ResolveTenant binds the caller's tenant id to the request context. The
// header wins over the query parameter; in dev mode a missing tenant falls
// back to DevTenant, otherwise the request is rejected before any handler
// runs.
func (m *Middleware) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Bypassed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tenantID := r.Header.Get(TenantHeader)
		if tenantID == "" {
			tenantID = r.URL.Query().Get(TenantQueryParam)
		}
		if tenantID == "" && m.devMode {
			tenantID = DevTenant
		}
		if tenantID == "" {
			log.Printf("❌ Tenant resolution failed for %s %s", r.Method, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "tenant id required"})
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveRole binds the caller's role to the request context. A role claim
// from a valid bearer token wins over the role header; absence of both is
// not an error, downstream handlers decide whether a missing role is fatal.
// Runs strictly after ResolveTenant.
func (m *Middleware) ResolveRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Bypassed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		role := ""
		if claims := m.bearerClaims(r); claims != nil {
			role = claims.Role
		}
		if role == "" {
			role = r.Header.Get(RoleHeader)
		}

		ctx := r.Context()
		if role != "" {
			ctx = context.WithValue(ctx, roleContextKey, role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) bearerClaims(r *http.Request) *Claims {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}

	claims, err := ValidateToken(parts[1], m.jwtSecret)
	if err != nil {
		log.Printf("⚠️  Invalid bearer token: %v", err)
		return nil
	}
	return claims
}

// Bypassed reports whether the path skips tenant and role resolution.
func Bypassed(path string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func TenantFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantContextKey).(string)
	return tenantID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleContextKey).(string)
	return role, ok
}
