package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrTenantNotFound       = errors.New("tenant not found or invalid API key")
	ErrUserNotFound         = errors.New("user not found")
	ErrLinkInvalidOrExpired = errors.New("magic link is invalid or has expired")
	ErrStateNotFound        = errors.New("authorization state is invalid or has expired")
	ErrRetryWindowExpired   = errors.New("authorization retry window has elapsed")
	ErrUnknownProvider      = errors.New("unknown identity provider")
	ErrInvalidToken         = errors.New("invalid or expired refresh token")
)
