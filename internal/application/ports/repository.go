package ports

import (
	"context"
	"time"

	"github.com/latchauth/latch/internal/domain"
)

// UserRepository defines persistence for users (tenant-scoped).
type UserRepository interface {
	// FindOrCreateByEmail returns the user for (tenant, email), creating it
	// if absent. The operation is idempotent: two concurrent calls converge
	// on the same row, which is what tolerates duplicate in-flight exchange
	// requests.
	FindOrCreateByEmail(ctx context.Context, tenantID domain.TenantID, email string) (*domain.User, error)
	GetByID(ctx context.Context, tenantID domain.TenantID, userID domain.UserID) (*domain.User, error)
}

// TenantRepository defines persistence for tenants.
type TenantRepository interface {
	GetByHost(ctx context.Context, host string) (*domain.Tenant, error)
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Tenant, error)
}

// RefreshTokenInfo describes a stored refresh token.
type RefreshTokenInfo struct {
	TenantID  domain.TenantID
	UserID    domain.UserID
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// TokenStore defines storage for refresh tokens. Tokens are stored hashed.
type TokenStore interface {
	StoreRefreshToken(ctx context.Context, tenantID domain.TenantID, userID domain.UserID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshTokenInfo, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}
