package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

// ExchangeOAuthInput redeems an authorization code against a stored state.
type ExchangeOAuthInput struct {
	Tenant     *domain.Tenant
	StateToken string
	Code       string
}

// ExchangeOAuthResult returns the proven identity plus session tokens.
type ExchangeOAuthResult struct {
	Identity     domain.AuthenticatedIdentity
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// ExchangeOAuth drives the second half of the authorization-code flow. The
// state store's atomic claim makes duplicate requests converge: one caller
// flips the record to in-use, the rest get the same payload within the retry
// window, and the provider's single-use code decides which of them wins.
type ExchangeOAuth struct {
	states      ports.OAuthStateStore
	idp         ports.IdentityProviderClient
	users       ports.UserRepository
	hasher      ports.SecretHasher
	issuer      ports.TokenIssuer
	tokenStore  ports.TokenStore
	retryWindow time.Duration
	accessExp   int64
	refreshExp  int64
	log         zerolog.Logger
}

// NewExchangeOAuth builds the use case.
func NewExchangeOAuth(states ports.OAuthStateStore, idp ports.IdentityProviderClient, users ports.UserRepository, hasher ports.SecretHasher, issuer ports.TokenIssuer, tokenStore ports.TokenStore, retryWindow time.Duration, accessExp, refreshExp int64, log zerolog.Logger) *ExchangeOAuth {
	if retryWindow <= 0 {
		retryWindow = 90 * time.Second
	}
	if accessExp <= 0 {
		accessExp = DefaultAccessTokenExpiry
	}
	if refreshExp <= 0 {
		refreshExp = DefaultRefreshTokenExpiry
	}
	return &ExchangeOAuth{
		states:      states,
		idp:         idp,
		users:       users,
		hasher:      hasher,
		issuer:      issuer,
		tokenStore:  tokenStore,
		retryWindow: retryWindow,
		accessExp:   accessExp,
		refreshExp:  refreshExp,
		log:         log,
	}
}

// Execute claims the state, redeems the code, provisions the user, and only
// then removes the record. Retryable failures leave the record in place so
// the client may try again with the same state token; terminal failures
// abort it so the next attempt restarts from the redirect.
func (uc *ExchangeOAuth) Execute(ctx context.Context, input ExchangeOAuthInput) (*ExchangeOAuthResult, error) {
	rec, err := uc.states.MarkInUse(ctx, input.StateToken, uc.retryWindow)
	if err != nil {
		if errors.Is(err, domerrors.ErrRetryWindowExpired) {
			uc.abort(ctx, input.StateToken)
		}
		return nil, err
	}
	// A state token minted for one tenant is meaningless under another.
	if rec.TenantDomain != input.Tenant.Host {
		return nil, domerrors.ErrStateNotFound
	}

	identity, err := uc.idp.Exchange(ctx, rec.Provider, input.Code, rec.PKCEVerifier)
	if err != nil {
		var xerr *authflow.ExchangeError
		if !errors.As(err, &xerr) {
			xerr = authflow.NewNetworkError(err)
		}
		return nil, uc.fail(ctx, input.StateToken, xerr)
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, uc.fail(ctx, input.StateToken, authflow.NewUserValidationError("provider returned no usable identity"))
	}

	user, err := uc.users.FindOrCreateByEmail(ctx, input.Tenant.ID, identity.Email)
	if err != nil {
		return nil, uc.fail(ctx, input.StateToken, authflow.NewPersistenceError(err))
	}

	accessToken, refreshToken, err := issueSession(ctx, uc.issuer, uc.tokenStore, uc.hasher, input.Tenant.ID, user.ID, uc.accessExp, uc.refreshExp)
	if err != nil {
		return nil, uc.fail(ctx, input.StateToken, authflow.NewPersistenceError(err))
	}

	// The user is authenticated; a cleanup failure must never undo that.
	// An orphaned record dies by TTL anyway.
	if err := uc.states.Complete(ctx, input.StateToken); err != nil {
		uc.log.Warn().Err(err).Msg("complete oauth state failed; record left to expire")
	}

	return &ExchangeOAuthResult{
		Identity: domain.AuthenticatedIdentity{
			TenantDomain: input.Tenant.Host,
			Subject:      identity.Email,
			UserID:       user.ID,
		},
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    uc.accessExp,
	}, nil
}

// fail classifies the error: retryable leaves the state untouched, terminal
// aborts it.
func (uc *ExchangeOAuth) fail(ctx context.Context, stateToken string, xerr *authflow.ExchangeError) error {
	if !xerr.Retryable() {
		uc.abort(ctx, stateToken)
	}
	return xerr
}

func (uc *ExchangeOAuth) abort(ctx context.Context, stateToken string) {
	if err := uc.states.Abort(ctx, stateToken); err != nil {
		uc.log.Warn().Err(err).Msg("abort oauth state failed; record left to expire")
	}
}
