package auth

import (
	"context"
	"time"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	"github.com/latchauth/latch/internal/domain/authflow"
)

// BeginOAuthInput starts an authorization-code flow with a provider.
type BeginOAuthInput struct {
	Tenant   *domain.Tenant
	Provider string
}

// BeginOAuthResult carries the redirect URL and the state token the client
// must present back at exchange time.
type BeginOAuthResult struct {
	StateToken   string
	AuthorizeURL string
}

// BeginOAuth generates the state token and PKCE verifier and stores the
// pending exchange record.
type BeginOAuth struct {
	states      ports.OAuthStateStore
	idp         ports.IdentityProviderClient
	stateTTL    time.Duration
	retryWindow time.Duration
	buffer      time.Duration
}

// NewBeginOAuth builds the use case.
func NewBeginOAuth(states ports.OAuthStateStore, idp ports.IdentityProviderClient, stateTTL, retryWindow, buffer time.Duration) *BeginOAuth {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &BeginOAuth{
		states:      states,
		idp:         idp,
		stateTTL:    stateTTL,
		retryWindow: retryWindow,
		buffer:      buffer,
	}
}

// Execute stores the pending record and returns the provider redirect. The
// record's TTL never starts below the retry window plus buffer, so a claim
// made at the last moment still has its full retry budget.
func (uc *BeginOAuth) Execute(ctx context.Context, input BeginOAuthInput) (*BeginOAuthResult, error) {
	stateToken, err := newRawToken()
	if err != nil {
		return nil, err
	}
	verifier, err := newPKCEVerifier()
	if err != nil {
		return nil, err
	}
	authorizeURL, err := uc.idp.AuthorizeURL(input.Provider, stateToken, verifier)
	if err != nil {
		return nil, err
	}

	ttl := uc.stateTTL
	if floor := uc.retryWindow + uc.buffer; ttl < floor {
		ttl = floor
	}
	rec := &authflow.OAuthStateRecord{
		TenantDomain: input.Tenant.Host,
		Provider:     input.Provider,
		PKCEVerifier: verifier,
		Status:       authflow.StatePending,
	}
	if err := uc.states.Store(ctx, stateToken, rec, ttl); err != nil {
		return nil, err
	}
	return &BeginOAuthResult{StateToken: stateToken, AuthorizeURL: authorizeURL}, nil
}
