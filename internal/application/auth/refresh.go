package auth

import (
	"context"
	"time"

	"github.com/latchauth/latch/internal/application/ports"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

// RefreshInput contains the raw refresh token.
type RefreshInput struct {
	RefreshToken string
}

// RefreshResult returns a rotated token pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A revoked or expired token is rejected.
type Refresh struct {
	hasher     ports.SecretHasher
	issuer     ports.TokenIssuer
	tokenStore ports.TokenStore
	accessExp  int64
	refreshExp int64
}

// NewRefresh builds the use case.
func NewRefresh(hasher ports.SecretHasher, issuer ports.TokenIssuer, tokenStore ports.TokenStore, accessExp, refreshExp int64) *Refresh {
	if accessExp <= 0 {
		accessExp = DefaultAccessTokenExpiry
	}
	if refreshExp <= 0 {
		refreshExp = DefaultRefreshTokenExpiry
	}
	return &Refresh{
		hasher:     hasher,
		issuer:     issuer,
		tokenStore: tokenStore,
		accessExp:  accessExp,
		refreshExp: refreshExp,
	}
}

// Execute validates and rotates the token.
func (uc *Refresh) Execute(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	if input.RefreshToken == "" {
		return nil, domerrors.ErrInvalidToken
	}
	hash := uc.hasher.HashToken(input.RefreshToken)
	info, err := uc.tokenStore.GetRefreshToken(ctx, hash)
	if err != nil {
		return nil, err
	}
	if info == nil || info.RevokedAt != nil || time.Now().After(info.ExpiresAt) {
		return nil, domerrors.ErrInvalidToken
	}
	if err := uc.tokenStore.RevokeRefreshToken(ctx, hash); err != nil {
		return nil, err
	}
	accessToken, refreshToken, err := issueSession(ctx, uc.issuer, uc.tokenStore, uc.hasher, info.TenantID, info.UserID, uc.accessExp, uc.refreshExp)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    uc.accessExp,
	}, nil
}
