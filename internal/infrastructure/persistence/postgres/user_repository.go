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
	// The no-op DO UPDATE makes RETURNING yield the existing row, so two
	// concurrent exchanges for the same identity converge on one user.
	findOrCreateUserSQL = `
INSERT INTO users (id, tenant_id, email, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (tenant_id, email) DO UPDATE SET updated_at = users.updated_at
RETURNING id, tenant_id, email, created_at, updated_at`

	getUserByIDSQL = `
SELECT id, tenant_id, email, created_at, updated_at
FROM users WHERE tenant_id = $1 AND id = $2`
)

// UserRepository implements ports.UserRepository via raw SQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, tenantID domain.TenantID, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, findOrCreateUserSQL, uuid.New(), tenantID.UUID, email)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, tenantID domain.TenantID, userID domain.UserID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, getUserByIDSQL, tenantID.UUID, userID.UUID)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var id, tenantID uuid.UUID
	if err := row.Scan(&id, &tenantID, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = domain.NewUserID(id)
	u.TenantID = domain.NewTenantID(tenantID)
	return &u, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
