package authflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExchangeErrorRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *ExchangeError
		retryable bool
	}{
		{"network", NewNetworkError(errors.New("dial tcp: i/o timeout")), true},
		{"persistence", NewPersistenceError(errors.New("pool exhausted")), true},
		{"provider 500", NewProviderError(500, "", "internal"), true},
		{"provider 503", NewProviderError(503, "", "unavailable"), true},
		{"provider 408", NewProviderError(408, "", "timeout"), true},
		{"provider 429", NewProviderError(429, "", "rate limited"), true},
		{"provider transient code", NewProviderError(400, "temporarily_unavailable", ""), true},
		{"provider slow_down", NewProviderError(400, "slow_down", ""), true},
		{"invalid_grant", NewProviderError(400, "invalid_grant", "code already redeemed"), false},
		{"invalid_request", NewProviderError(400, "invalid_request", ""), false},
		{"provider 401", NewProviderError(401, "invalid_client", ""), false},
		{"token validation", NewTokenValidationError("no id_token"), false},
		{"user validation", NewUserValidationError("empty subject"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestExchangeErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestEffectiveStatusDefaultsToPending(t *testing.T) {
	rec := &OAuthStateRecord{TenantDomain: "acme.example.com"}
	assert.Equal(t, StatePending, rec.EffectiveStatus())
	rec.Status = StateInUse
	assert.Equal(t, StateInUse, rec.EffectiveStatus())
}
