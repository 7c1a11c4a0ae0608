package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeNotFound            = "not_found"
	ErrCodeInvalidToken        = "invalid_token"
	ErrCodeLinkInvalid         = "link_invalid_or_expired"
	ErrCodeStateNotFound       = "state_not_found"
	ErrCodeRetryWindowExpired  = "retry_window_expired"
	ErrCodeUnknownProvider     = "unknown_provider"
	ErrCodeExchangeFailed      = "exchange_failed"
	ErrCodeProviderUnavailable = "provider_unavailable"
	ErrCodeInternal            = "internal_error"
)
