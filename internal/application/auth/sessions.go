package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
)

// Default expiries in seconds, applied when config leaves them unset.
const (
	DefaultAccessTokenExpiry  = 900
	DefaultRefreshTokenExpiry = 604800
)

// newRawToken returns a 256-bit hex token for magic links, state tokens and
// refresh tokens.
func newRawToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// newPKCEVerifier returns a 43-char base64url verifier per RFC 7636.
func newPKCEVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// issueSession mints an access token and a fresh refresh token, persisting
// only the refresh token's hash.
func issueSession(ctx context.Context, issuer ports.TokenIssuer, store ports.TokenStore, hasher ports.SecretHasher, tenantID domain.TenantID, userID domain.UserID, accessExp, refreshExp int64) (accessToken, refreshToken string, err error) {
	accessToken, err = issuer.IssueAccessToken(tenantID.String(), userID.String(), accessExp)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = newRawToken()
	if err != nil {
		return "", "", err
	}
	expiresAt := time.Now().Add(time.Duration(refreshExp) * time.Second)
	if err := store.StoreRefreshToken(ctx, tenantID, userID, hasher.HashToken(refreshToken), expiresAt); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
