package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	"github.com/latchauth/latch/internal/domain/authflow"
)

// RequestMagicLinkInput for passwordless sign-in. Binding is optional opaque
// client context echoed back at consume time.
type RequestMagicLinkInput struct {
	Tenant  *domain.Tenant
	Email   string
	Binding string
}

// RequestMagicLinkResult returns nothing sensitive; email is sent async.
type RequestMagicLinkResult struct{}

// RequestMagicLink creates a magic link token, stores its record under the
// domain-scoped hash, and enqueues sending the email.
type RequestMagicLink struct {
	links    ports.MagicLinkStore
	hasher   ports.SecretHasher
	enqueuer ports.TaskEnqueuer
	baseURL  string
	expiry   time.Duration
}

// NewRequestMagicLink builds the use case.
func NewRequestMagicLink(links ports.MagicLinkStore, hasher ports.SecretHasher, enqueuer ports.TaskEnqueuer, baseURL string, expiry time.Duration) *RequestMagicLink {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &RequestMagicLink{
		links:    links,
		hasher:   hasher,
		enqueuer: enqueuer,
		baseURL:  baseURL,
		expiry:   expiry,
	}
}

// Execute creates the link and enqueues the email. The raw token leaves the
// process only inside the emailed URL.
func (uc *RequestMagicLink) Execute(ctx context.Context, input RequestMagicLinkInput) (*RequestMagicLinkResult, error) {
	token, err := newRawToken()
	if err != nil {
		return nil, err
	}
	key := uc.hasher.ScopedHash(token, input.Tenant.Host)
	rec := &authflow.MagicLinkRecord{
		TenantDomain: input.Tenant.Host,
		Email:        input.Email,
		Binding:      input.Binding,
	}
	if err := uc.links.Put(ctx, key, rec, uc.expiry); err != nil {
		return nil, err
	}

	linkURL := fmt.Sprintf("%s?token=%s", uc.baseURL, token)
	if err := uc.enqueuer.EnqueueSendMagicLink(ctx, input.Tenant.ID.String(), input.Email, linkURL); err != nil {
		// best-effort; link is already stored
		return &RequestMagicLinkResult{}, nil
	}
	return &RequestMagicLinkResult{}, nil
}
