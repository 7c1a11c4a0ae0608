package middleware

import (
	"net/http"
	"strings"

	"github.com/latchauth/latch/internal/application/ports"
)

// AuthValidator validates the access token and sets tenant/user IDs in
// context (see AuthFromContext).
type AuthValidator struct {
	issuer ports.TokenIssuer
}

func NewAuthValidator(issuer ports.TokenIssuer) *AuthValidator {
	return &AuthValidator{issuer: issuer}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeErrJSON(w, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization")
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		tenantID, userID, err := m.issuer.ValidateAccessToken(tokenString)
		if err != nil {
			writeErrJSON(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}
		ctx := WithAuth(r.Context(), tenantID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
