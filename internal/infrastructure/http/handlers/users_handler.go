package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain"
	"github.com/latchauth/latch/internal/infrastructure/http/middleware"
)

// UsersHandler handles /users/me. Requires AuthValidator middleware.
type UsersHandler struct {
	userRepo ports.UserRepository
}

// NewUsersHandler creates a handler for user resource endpoints.
func NewUsersHandler(userRepo ports.UserRepository) *UsersHandler {
	return &UsersHandler{userRepo: userRepo}
}

// MeResponse is the JSON shape for GET /users/me.
type MeResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Me returns the current user from the access token.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	tenantIDStr, userIDStr := middleware.AuthFromContext(r.Context())
	if tenantIDStr == "" || userIDStr == "" {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
		return
	}
	tenantID, err := uuid.Parse(tenantIDStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid tenant id")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid user id")
		return
	}
	user, err := h.userRepo.GetByID(r.Context(), domain.NewTenantID(tenantID), domain.NewUserID(userID))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	if user == nil {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		ID:        user.ID.String(),
		TenantID:  user.TenantID.String(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	})
}
