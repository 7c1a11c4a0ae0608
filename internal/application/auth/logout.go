package auth

import (
	"context"

	"github.com/latchauth/latch/internal/application/ports"
)

// LogoutInput contains the refresh token to revoke.
type LogoutInput struct {
	RefreshToken string
}

// Logout revokes the refresh token. Unknown tokens are ignored so logout is
// idempotent.
type Logout struct {
	hasher     ports.SecretHasher
	tokenStore ports.TokenStore
}

// NewLogout builds the use case.
func NewLogout(hasher ports.SecretHasher, tokenStore ports.TokenStore) *Logout {
	return &Logout{hasher: hasher, tokenStore: tokenStore}
}

// Execute revokes the token.
func (uc *Logout) Execute(ctx context.Context, input LogoutInput) error {
	if input.RefreshToken == "" {
		return nil
	}
	return uc.tokenStore.RevokeRefreshToken(ctx, uc.hasher.HashToken(input.RefreshToken))
}
