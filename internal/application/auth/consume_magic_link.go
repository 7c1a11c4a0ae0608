package auth

import (
	"context"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

// ConsumeMagicLinkInput contains the raw token from the clicked link.
type ConsumeMagicLinkInput struct {
	Tenant   *domain.Tenant
	RawToken string
	Binding  string
}

// ConsumeMagicLinkResult returns the proven identity plus session tokens.
type ConsumeMagicLinkResult struct {
	Identity     domain.AuthenticatedIdentity
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// ConsumeMagicLink redeems the token, get-or-creates the user, and issues
// session tokens. Redemption is at-most-once; the store deletes the record
// atomically with the read.
type ConsumeMagicLink struct {
	links      ports.MagicLinkStore
	hasher     ports.SecretHasher
	users      ports.UserRepository
	issuer     ports.TokenIssuer
	tokenStore ports.TokenStore
	accessExp  int64
	refreshExp int64
}

// NewConsumeMagicLink builds the use case.
func NewConsumeMagicLink(links ports.MagicLinkStore, hasher ports.SecretHasher, users ports.UserRepository, issuer ports.TokenIssuer, tokenStore ports.TokenStore, accessExp, refreshExp int64) *ConsumeMagicLink {
	if accessExp <= 0 {
		accessExp = DefaultAccessTokenExpiry
	}
	if refreshExp <= 0 {
		refreshExp = DefaultRefreshTokenExpiry
	}
	return &ConsumeMagicLink{
		links:      links,
		hasher:     hasher,
		users:      users,
		issuer:     issuer,
		tokenStore: tokenStore,
		accessExp:  accessExp,
		refreshExp: refreshExp,
	}
}

// Execute consumes the token, validates the binding, and signs the user in.
// Every failure mode surfaces as ErrLinkInvalidOrExpired so callers cannot
// probe which part rejected the link.
func (uc *ConsumeMagicLink) Execute(ctx context.Context, input ConsumeMagicLinkInput) (*ConsumeMagicLinkResult, error) {
	if input.RawToken == "" {
		return nil, domerrors.ErrLinkInvalidOrExpired
	}
	key := uc.hasher.ScopedHash(input.RawToken, input.Tenant.Host)
	rec, err := uc.links.Consume(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domerrors.ErrLinkInvalidOrExpired
	}
	if rec.TenantDomain != input.Tenant.Host {
		return nil, domerrors.ErrLinkInvalidOrExpired
	}
	if rec.Binding != "" && rec.Binding != input.Binding {
		return nil, domerrors.ErrLinkInvalidOrExpired
	}

	user, err := uc.users.FindOrCreateByEmail(ctx, input.Tenant.ID, rec.Email)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := issueSession(ctx, uc.issuer, uc.tokenStore, uc.hasher, input.Tenant.ID, user.ID, uc.accessExp, uc.refreshExp)
	if err != nil {
		return nil, err
	}
	return &ConsumeMagicLinkResult{
		Identity: domain.AuthenticatedIdentity{
			TenantDomain: input.Tenant.Host,
			Subject:      rec.Email,
			UserID:       user.ID,
		},
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    uc.accessExp,
	}, nil
}
