package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is a tenant-scoped user. Users here are passwordless; they exist only
// because a magic link or OAuth exchange proved control of the email.
type User struct {
	ID        UserID
	TenantID  TenantID
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthenticatedIdentity is the outcome of a successful magic-link consume or
// OAuth exchange: which tenant, which subject.
type AuthenticatedIdentity struct {
	TenantDomain string
	Subject      string
	UserID       UserID
}
