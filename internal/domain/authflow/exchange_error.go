package authflow

import "fmt"

// ExchangeErrorKind tags a failure of the authorization-code exchange.
type ExchangeErrorKind int

const (
	// ExchangeNetwork is a transport failure before or while talking to the
	// provider's token endpoint.
	ExchangeNetwork ExchangeErrorKind = iota
	// ExchangeProvider is a non-2xx answer from the provider. Status and Code
	// carry the provider's HTTP status and OAuth error code.
	ExchangeProvider
	// ExchangeTokenValidation means the provider answered 2xx but the token
	// payload did not yield a usable identity.
	ExchangeTokenValidation
	// ExchangeUserValidation means the identity itself failed validation.
	ExchangeUserValidation
	// ExchangePersistence is an infrastructure failure on our side while
	// provisioning the user.
	ExchangePersistence
)

func (k ExchangeErrorKind) String() string {
	switch k {
	case ExchangeNetwork:
		return "network"
	case ExchangeProvider:
		return "provider"
	case ExchangeTokenValidation:
		return "token_validation"
	case ExchangeUserValidation:
		return "user_validation"
	case ExchangePersistence:
		return "persistence"
	}
	return "unknown"
}

// Provider error codes that indicate a transient provider-side condition.
// Everything else (invalid_grant, invalid_request, ...) means the code is
// spent or malformed and retrying the same exchange cannot succeed.
var transientProviderCodes = map[string]bool{
	"temporarily_unavailable": true,
	"server_error":            true,
	"slow_down":               true,
}

// ExchangeError is a typed failure of the exchange step. The retryability
// verdict is computed from structure, never from message text.
type ExchangeError struct {
	Kind    ExchangeErrorKind
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *ExchangeError) Error() string {
	if e.Kind == ExchangeProvider {
		return fmt.Sprintf("exchange failed (%s): status=%d code=%q %s", e.Kind, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("exchange failed (%s): %s", e.Kind, e.Message)
}

func (e *ExchangeError) Unwrap() error { return e.cause }

// Retryable reports whether the same state token may be presented again.
// Retryable failures leave the state record untouched; terminal failures make
// the orchestrator abort it.
func (e *ExchangeError) Retryable() bool {
	switch e.Kind {
	case ExchangeNetwork, ExchangePersistence:
		return true
	case ExchangeProvider:
		if e.Status >= 500 || e.Status == 408 || e.Status == 429 {
			return true
		}
		return transientProviderCodes[e.Code]
	}
	return false
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) *ExchangeError {
	return &ExchangeError{Kind: ExchangeNetwork, Message: err.Error(), cause: err}
}

// NewProviderError wraps a provider token-endpoint rejection.
func NewProviderError(status int, code, message string) *ExchangeError {
	return &ExchangeError{Kind: ExchangeProvider, Status: status, Code: code, Message: message}
}

// NewTokenValidationError marks the provider's token payload as unusable.
func NewTokenValidationError(message string) *ExchangeError {
	return &ExchangeError{Kind: ExchangeTokenValidation, Message: message}
}

// NewUserValidationError marks the returned identity as invalid.
func NewUserValidationError(message string) *ExchangeError {
	return &ExchangeError{Kind: ExchangeUserValidation, Message: message}
}

// NewPersistenceError wraps a failure in our own storage layer.
func NewPersistenceError(err error) *ExchangeError {
	return &ExchangeError{Kind: ExchangePersistence, Message: err.Error(), cause: err}
}
