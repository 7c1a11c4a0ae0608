package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantID is a value object for tenant identity.
type TenantID struct{ uuid.UUID }

// NewTenantID creates a new TenantID from uuid.
func NewTenantID(id uuid.UUID) TenantID { return TenantID{UUID: id} }

// String returns the canonical string form.
func (t TenantID) String() string { return t.UUID.String() }

// Tenant is one customer of the service. Host is the DNS subdomain the
// customer pointed at us; requests are attributed to a tenant either by Host
// or by API key.
type Tenant struct {
	ID         TenantID
	Name       string
	Host       string
	APIKeyHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
