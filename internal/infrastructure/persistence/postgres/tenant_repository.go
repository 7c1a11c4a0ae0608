package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
)

const (
	getTenantByHostSQL = `
SELECT id, name, host, api_key_hash, created_at, updated_at
FROM tenants WHERE host = $1`

	getTenantByAPIKeyHashSQL = `
SELECT id, name, host, api_key_hash, created_at, updated_at
FROM tenants WHERE api_key_hash = $1`
)

// TenantRepository implements ports.TenantRepository via raw SQL.
type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) GetByHost(ctx context.Context, host string) (*domain.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, getTenantByHostSQL, host))
}

func (r *TenantRepository) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, getTenantByAPIKeyHashSQL, apiKeyHash))
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var id uuid.UUID
	err := row.Scan(&id, &t.Name, &t.Host, &t.APIKeyHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.ID = domain.NewTenantID(id)
	return &t, nil
}

var _ ports.TenantRepository = (*TenantRepository)(nil)
