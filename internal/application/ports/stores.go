package ports

import (
	"context"
	"time"

	"github.com/latchauth/latch/internal/domain/authflow"
)

// MagicLinkStore is the single-phase ephemeral store. Keys are scoped hashes
// of raw link tokens.
type MagicLinkStore interface {
	// Put inserts the record with an expiry. Overwrite is allowed.
	Put(ctx context.Context, key string, rec *authflow.MagicLinkRecord, ttl time.Duration) error
	// Consume atomically fetches and deletes the record. Returns (nil, nil)
	// when the key is absent or expired; a key is consumable at most once.
	Consume(ctx context.Context, key string) (*authflow.MagicLinkRecord, error)
}

// OAuthStateStore is the two-phase state machine backing the
// authorization-code exchange. All time comparisons use the store's own
// clock, never the caller's, so service instances with skewed wall clocks
// agree on the retry window.
type OAuthStateStore interface {
	// Store inserts the initial pending record with an expiry.
	Store(ctx context.Context, token string, rec *authflow.OAuthStateRecord, ttl time.Duration) error
	// MarkInUse atomically claims the record for an exchange attempt.
	// Pending records transition to in-use; in-use records within retryWindow
	// of their first claim are returned unchanged, which is what makes
	// duplicate requests idempotent. Either way the key's TTL is raised to at
	// least retryWindow plus the store's buffer.
	//
	// Returns domerrors.ErrStateNotFound when the key is absent or expired,
	// and domerrors.ErrRetryWindowExpired when the record is in-use but past
	// its retry budget (the record is left in place; callers must Abort).
	MarkInUse(ctx context.Context, token string, retryWindow time.Duration) (*authflow.OAuthStateRecord, error)
	// Complete deletes the record after the whole flow succeeded. Callers
	// treat failure as best-effort; the record expires via TTL regardless.
	Complete(ctx context.Context, token string) error
	// Abort deletes the record so the user's next attempt starts clean.
	// Deleting an absent key is not an error.
	Abort(ctx context.Context, token string) error
}
