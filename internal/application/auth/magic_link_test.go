package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domerrors "github.com/latchauth/latch/internal/domain/errors"
	"github.com/latchauth/latch/internal/infrastructure/security"
)

func TestMagicLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	tenant := testTenant()
	links := newFakeMagicLinkStore()
	hasher := security.NewHasher()
	enqueuer := &fakeEnqueuer{}
	users := newFakeUserRepo()
	tokens := newFakeTokenStore()

	request := NewRequestMagicLink(links, hasher, enqueuer, "https://acme.example.com/magic", 15*time.Minute)
	consume := NewConsumeMagicLink(links, hasher, users, &fakeIssuer{}, tokens, 0, 0)

	_, err := request.Execute(ctx, RequestMagicLinkInput{Tenant: tenant, Email: "u@x.com"})
	require.NoError(t, err)
	require.Len(t, enqueuer.linkURLs, 1)

	// The raw token exists only in the emailed URL; the store holds its
	// scoped hash.
	rawToken := strings.TrimPrefix(enqueuer.linkURLs[0], "https://acme.example.com/magic?token=")
	require.NotContains(t, links.items, rawToken)
	require.Contains(t, links.items, hasher.ScopedHash(rawToken, tenant.Host))

	result, err := consume.Execute(ctx, ConsumeMagicLinkInput{Tenant: tenant, RawToken: rawToken})
	require.NoError(t, err)
	require.Equal(t, "u@x.com", result.Identity.Subject)
	require.Equal(t, tenant.Host, result.Identity.TenantDomain)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	// Second consume of the same link is refused.
	_, err = consume.Execute(ctx, ConsumeMagicLinkInput{Tenant: tenant, RawToken: rawToken})
	require.ErrorIs(t, err, domerrors.ErrLinkInvalidOrExpired)
}

func TestConsumeMagicLinkRejectsWrongTenant(t *testing.T) {
	ctx := context.Background()
	tenant := testTenant()
	other := testTenant()
	other.Host = "globex.example.com"
	links := newFakeMagicLinkStore()
	hasher := security.NewHasher()
	enqueuer := &fakeEnqueuer{}

	request := NewRequestMagicLink(links, hasher, enqueuer, "https://acme.example.com/magic", time.Minute)
	consume := NewConsumeMagicLink(links, hasher, newFakeUserRepo(), &fakeIssuer{}, newFakeTokenStore(), 0, 0)

	_, err := request.Execute(ctx, RequestMagicLinkInput{Tenant: tenant, Email: "u@x.com"})
	require.NoError(t, err)
	rawToken := strings.TrimPrefix(enqueuer.linkURLs[0], "https://acme.example.com/magic?token=")

	// A token scoped to one tenant hashes to a different key under another.
	_, err = consume.Execute(ctx, ConsumeMagicLinkInput{Tenant: other, RawToken: rawToken})
	require.ErrorIs(t, err, domerrors.ErrLinkInvalidOrExpired)

	// The original tenant can still redeem it.
	_, err = consume.Execute(ctx, ConsumeMagicLinkInput{Tenant: tenant, RawToken: rawToken})
	require.NoError(t, err)
}

func TestConsumeMagicLinkBindingMismatch(t *testing.T) {
	ctx := context.Background()
	tenant := testTenant()
	links := newFakeMagicLinkStore()
	hasher := security.NewHasher()
	enqueuer := &fakeEnqueuer{}

	request := NewRequestMagicLink(links, hasher, enqueuer, "https://acme.example.com/magic", time.Minute)
	consume := NewConsumeMagicLink(links, hasher, newFakeUserRepo(), &fakeIssuer{}, newFakeTokenStore(), 0, 0)

	_, err := request.Execute(ctx, RequestMagicLinkInput{Tenant: tenant, Email: "u@x.com", Binding: "session-abc"})
	require.NoError(t, err)
	rawToken := strings.TrimPrefix(enqueuer.linkURLs[0], "https://acme.example.com/magic?token=")

	_, err = consume.Execute(ctx, ConsumeMagicLinkInput{Tenant: tenant, RawToken: rawToken, Binding: "session-other"})
	require.ErrorIs(t, err, domerrors.ErrLinkInvalidOrExpired)
}

func TestRequestMagicLinkSurvivesEnqueueFailure(t *testing.T) {
	ctx := context.Background()
	tenant := testTenant()
	links := newFakeMagicLinkStore()
	enqueuer := &fakeEnqueuer{err: context.DeadlineExceeded}

	request := NewRequestMagicLink(links, security.NewHasher(), enqueuer, "https://acme.example.com/magic", time.Minute)
	_, err := request.Execute(ctx, RequestMagicLinkInput{Tenant: tenant, Email: "u@x.com"})
	require.NoError(t, err)
	require.Len(t, links.items, 1)
}
