package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

func testTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:   domain.NewTenantID(uuid.New()),
		Name: "Acme",
		Host: "acme.example.com",
	}
}

type fakeMagicLinkStore struct {
	items map[string]*authflow.MagicLinkRecord
	ttls  map[string]time.Duration
}

func newFakeMagicLinkStore() *fakeMagicLinkStore {
	return &fakeMagicLinkStore{
		items: make(map[string]*authflow.MagicLinkRecord),
		ttls:  make(map[string]time.Duration),
	}
}

func (s *fakeMagicLinkStore) Put(_ context.Context, key string, rec *authflow.MagicLinkRecord, ttl time.Duration) error {
	s.items[key] = rec
	s.ttls[key] = ttl
	return nil
}

func (s *fakeMagicLinkStore) Consume(_ context.Context, key string) (*authflow.MagicLinkRecord, error) {
	rec, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	delete(s.items, key)
	return rec, nil
}

// fakeStateStore mirrors the Redis store's contract with a settable clock.
type fakeStateStore struct {
	recs        map[string]*authflow.OAuthStateRecord
	ttls        map[string]time.Duration
	now         int64
	completed   []string
	aborted     []string
	markErr     error
	completeErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{
		recs: make(map[string]*authflow.OAuthStateRecord),
		ttls: make(map[string]time.Duration),
		now:  1700000000,
	}
}

func (s *fakeStateStore) Store(_ context.Context, token string, rec *authflow.OAuthStateRecord, ttl time.Duration) error {
	cp := *rec
	s.recs[token] = &cp
	s.ttls[token] = ttl
	return nil
}

func (s *fakeStateStore) MarkInUse(_ context.Context, token string, retryWindow time.Duration) (*authflow.OAuthStateRecord, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	rec, ok := s.recs[token]
	if !ok {
		return nil, domerrors.ErrStateNotFound
	}
	if rec.EffectiveStatus() == authflow.StatePending {
		rec.Status = authflow.StateInUse
		rec.MarkedAt = s.now
	} else if s.now-rec.MarkedAt > int64(retryWindow.Seconds()) {
		return nil, domerrors.ErrRetryWindowExpired
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStateStore) Complete(_ context.Context, token string) error {
	s.completed = append(s.completed, token)
	if s.completeErr != nil {
		return s.completeErr
	}
	delete(s.recs, token)
	return nil
}

func (s *fakeStateStore) Abort(_ context.Context, token string) error {
	s.aborted = append(s.aborted, token)
	delete(s.recs, token)
	return nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
	err   error
	calls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) FindOrCreateByEmail(_ context.Context, tenantID domain.TenantID, email string) (*domain.User, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	key := tenantID.String() + "/" + email
	if u, ok := r.users[key]; ok {
		return u, nil
	}
	now := time.Now()
	u := &domain.User{
		ID:        domain.NewUserID(uuid.New()),
		TenantID:  tenantID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[key] = u
	return u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, tenantID domain.TenantID, userID domain.UserID) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == userID && u.TenantID == tenantID {
			return u, nil
		}
	}
	return nil, nil
}

type fakeIssuer struct{ err error }

func (f *fakeIssuer) IssueAccessToken(tenantID, userID string, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "access-" + tenantID + "-" + userID, nil
}

func (f *fakeIssuer) ValidateAccessToken(string) (string, string, error) {
	return "", "", errors.New("not implemented")
}

type fakeTokenStore struct {
	byHash map[string]*ports.RefreshTokenInfo
	err    error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byHash: make(map[string]*ports.RefreshTokenInfo)}
}

func (s *fakeTokenStore) StoreRefreshToken(_ context.Context, tenantID domain.TenantID, userID domain.UserID, tokenHash string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.byHash[tokenHash] = &ports.RefreshTokenInfo{TenantID: tenantID, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (s *fakeTokenStore) GetRefreshToken(_ context.Context, tokenHash string) (*ports.RefreshTokenInfo, error) {
	info, ok := s.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	return info, nil
}

func (s *fakeTokenStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if info, ok := s.byHash[tokenHash]; ok && info.RevokedAt == nil {
		now := time.Now()
		info.RevokedAt = &now
	}
	return nil
}

type fakeIdP struct {
	identity *ports.ProviderIdentity
	err      error
	calls    int
}

func (f *fakeIdP) AuthorizeURL(provider, stateToken, pkceVerifier string) (string, error) {
	if provider == "" {
		return "", domerrors.ErrUnknownProvider
	}
	return "https://idp.example.com/authorize?state=" + stateToken + "&provider=" + provider, nil
}

func (f *fakeIdP) Exchange(_ context.Context, provider, code, pkceVerifier string) (*ports.ProviderIdentity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeEnqueuer struct {
	linkURLs []string
	emails   []string
	err      error
}

func (f *fakeEnqueuer) EnqueueSendMagicLink(_ context.Context, tenantID, email, linkURL string) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, email)
	f.linkURLs = append(f.linkURLs, linkURL)
	return nil
}
