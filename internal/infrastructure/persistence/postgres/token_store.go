package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
)

const (
	createRefreshTokenSQL = `
INSERT INTO refresh_tokens (id, tenant_id, user_id, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())`

	getRefreshTokenByHashSQL = `
SELECT tenant_id, user_id, expires_at, revoked_at
FROM refresh_tokens WHERE token_hash = $1`

	revokeRefreshTokenSQL = `
UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, NOW())
WHERE token_hash = $1`
)

// TokenStore implements ports.TokenStore via raw SQL. Only token hashes are
// stored.
type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (s *TokenStore) StoreRefreshToken(ctx context.Context, tenantID domain.TenantID, userID domain.UserID, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, createRefreshTokenSQL,
		uuid.New(), tenantID.UUID, userID.UUID, tokenHash, expiresAt)
	return err
}

func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshTokenInfo, error) {
	var tenantID, userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time
	err := s.pool.QueryRow(ctx, getRefreshTokenByHashSQL, tokenHash).
		Scan(&tenantID, &userID, &expiresAt, &revokedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ports.RefreshTokenInfo{
		TenantID:  domain.NewTenantID(tenantID),
		UserID:    domain.NewUserID(userID),
		ExpiresAt: expiresAt,
		RevokedAt: revokedAt,
	}, nil
}

func (s *TokenStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, revokeRefreshTokenSQL, tokenHash)
	return err
}

var _ ports.TokenStore = (*TokenStore)(nil)
