package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"

	"github.com/latchauth/latch/internal/application/ports"
)

// HashAPIKeyFunc hashes an API key for storage/lookup (SHA256).
type HashAPIKeyFunc func(string) string

// SHA256HashAPIKey returns a function that SHA256-hashes the key (hex).
func SHA256HashAPIKey() HashAPIKeyFunc {
	return func(key string) string {
		h := sha256.Sum256([]byte(key))
		return hex.EncodeToString(h[:])
	}
}

// TenantResolver attributes the request to a tenant. An API key in
// X-Latch-Domain-Key wins; otherwise the Host header is matched against the
// tenant's registered host. The resolved tenant is set in context.
type TenantResolver struct {
	tenants    ports.TenantRepository
	hashAPIKey HashAPIKeyFunc
}

func NewTenantResolver(tenants ports.TenantRepository, hashAPIKey HashAPIKeyFunc) *TenantResolver {
	return &TenantResolver{tenants: tenants, hashAPIKey: hashAPIKey}
}

func (m *TenantResolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-Latch-Domain-Key"); key != "" {
			tenant, err := m.tenants.GetByAPIKeyHash(r.Context(), m.hashAPIKey(key))
			if err != nil {
				writeErrJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
				return
			}
			if tenant == nil {
				writeErrJSON(w, http.StatusUnauthorized, "unauthorized", "invalid domain key")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
			return
		}

		host := hostWithoutPort(r.Host)
		if host == "" {
			writeErrJSON(w, http.StatusUnauthorized, "unauthorized", "missing host or domain key")
			return
		}
		tenant, err := m.tenants.GetByHost(r.Context(), host)
		if err != nil {
			writeErrJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if tenant == nil {
			writeErrJSON(w, http.StatusUnauthorized, "unauthorized", "unknown tenant host")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
	})
}

func hostWithoutPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func writeErrJSON(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}
