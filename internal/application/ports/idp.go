package ports

import "context"

// ProviderIdentity is what the external IdP asserts about the user after a
// successful code exchange.
type ProviderIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// IdentityProviderClient talks to the external IdP. Exchange failures are
// always *authflow.ExchangeError so the orchestrator can classify them.
type IdentityProviderClient interface {
	// AuthorizeURL builds the provider redirect URL carrying the state token
	// and the S256 challenge derived from pkceVerifier.
	AuthorizeURL(provider, stateToken, pkceVerifier string) (string, error)
	// Exchange redeems the authorization code at the provider's token
	// endpoint and resolves the user identity.
	Exchange(ctx context.Context, provider, code, pkceVerifier string) (*ProviderIdentity, error)
}
