package ports

// SecretHasher derives storage keys from bearer secrets so raw secrets are
// never persisted.
type SecretHasher interface {
	// ScopedHash qualifies the digest with the tenant domain.
	ScopedHash(raw, domain string) string
	// HashToken digests a globally unique secret (refresh token, API key).
	HashToken(s string) string
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueAccessToken(tenantID, userID string, expiresInSeconds int64) (string, error)
	ValidateAccessToken(tokenString string) (tenantID, userID string, err error)
}
