package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

// ProviderConfig describes one upstream identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// Endpoint overrides; when empty, Register* helpers fill in well-known
	// values.
	AuthURL  string
	TokenURL string
	// UserInfoURL is consulted when the token response carries no id_token.
	UserInfoURL string
}

type providerEntry struct {
	oauth       oauth2.Config
	userInfoURL string
}

// Client redeems authorization codes against external IdPs. Failures always
// come back as *authflow.ExchangeError so callers can classify them without
// inspecting transport details.
type Client struct {
	providers  map[string]providerEntry
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		providers:  make(map[string]providerEntry),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register adds a provider under the given name.
func (c *Client) Register(name string, cfg ProviderConfig) {
	c.providers[name] = providerEntry{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// RegisterGoogle registers Google with its well-known endpoints. Google is an
// OIDC provider; identity comes from the id_token.
func (c *Client) RegisterGoogle(clientID, clientSecret, redirectURL string) {
	c.providers["google"] = providerEntry{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// RegisterGitHub registers GitHub. GitHub has no id_token; identity comes
// from the user endpoint.
func (c *Client) RegisterGitHub(clientID, clientSecret, redirectURL string) {
	c.providers["github"] = providerEntry{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userInfoURL: "https://api.github.com/user",
	}
}

// AuthorizeURL builds the provider redirect carrying the state token and the
// S256 challenge for the verifier.
func (c *Client) AuthorizeURL(provider, stateToken, pkceVerifier string) (string, error) {
	entry, ok := c.providers[provider]
	if !ok {
		return "", domerrors.ErrUnknownProvider
	}
	return entry.oauth.AuthCodeURL(stateToken, oauth2.S256ChallengeOption(pkceVerifier)), nil
}

// Exchange redeems the code and resolves the asserted identity.
func (c *Client) Exchange(ctx context.Context, provider, code, pkceVerifier string) (*ports.ProviderIdentity, error) {
	entry, ok := c.providers[provider]
	if !ok {
		return nil, domerrors.ErrUnknownProvider
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := entry.oauth.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			status := 0
			if rerr.Response != nil {
				status = rerr.Response.StatusCode
			}
			return nil, authflow.NewProviderError(status, rerr.ErrorCode, rerr.ErrorDescription)
		}
		return nil, authflow.NewNetworkError(err)
	}

	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		return identityFromIDToken(provider, idToken)
	}
	if entry.userInfoURL != "" {
		return c.identityFromUserInfo(ctx, provider, entry, tok)
	}
	return nil, authflow.NewTokenValidationError("token response carries no identity")
}

// identityFromIDToken extracts sub and email from the id_token claims. The
// token arrived over the provider's TLS channel in direct exchange for the
// code, so signature verification adds nothing here.
func identityFromIDToken(provider, idToken string) (*ports.ProviderIdentity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, authflow.NewTokenValidationError(fmt.Sprintf("malformed id_token: %v", err))
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, authflow.NewTokenValidationError("id_token has no subject")
	}
	return &ports.ProviderIdentity{Provider: provider, Subject: sub, Email: email}, nil
}

func (c *Client) identityFromUserInfo(ctx context.Context, provider string, entry providerEntry, tok *oauth2.Token) (*ports.ProviderIdentity, error) {
	resp, err := entry.oauth.Client(ctx, tok).Get(entry.userInfoURL)
	if err != nil {
		return nil, authflow.NewNetworkError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, authflow.NewProviderError(resp.StatusCode, "", "userinfo request failed")
	}
	var body struct {
		Sub   string      `json:"sub"`
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, authflow.NewTokenValidationError(fmt.Sprintf("malformed userinfo response: %v", err))
	}
	sub := body.Sub
	if sub == "" {
		sub = body.ID.String()
	}
	if sub == "" || sub == "0" {
		return nil, authflow.NewTokenValidationError("userinfo response has no subject")
	}
	return &ports.ProviderIdentity{Provider: provider, Subject: sub, Email: body.Email}, nil
}

var _ ports.IdentityProviderClient = (*Client)(nil)
