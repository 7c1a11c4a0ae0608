package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *OAuthStateStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewOAuthStateStore(client, 30*time.Second)
}

func pendingRecord() *authflow.OAuthStateRecord {
	return &authflow.OAuthStateRecord{
		TenantDomain: "acme.example.com",
		Provider:     "google",
		PKCEVerifier: "verifier-123",
		Status:       authflow.StatePending,
	}
}

func TestMarkInUseClaimsPendingRecord(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	mr.SetTime(start)

	require.NoError(t, store.Store(ctx, "s1", pendingRecord(), 60*time.Second))

	rec, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.NoError(t, err)
	require.Equal(t, authflow.StateInUse, rec.Status)
	require.Equal(t, start.Unix(), rec.MarkedAt)
	require.Equal(t, "verifier-123", rec.PKCEVerifier)

	// Original 60s TTL was below the window+buffer floor and must be raised.
	require.Equal(t, 120*time.Second, mr.TTL(oauthStateKeyPrefix+"s1"))
}

func TestMarkInUseIdempotentWithinWindow(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	mr.SetTime(start)

	require.NoError(t, store.Store(ctx, "s1", pendingRecord(), 60*time.Second))

	first, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.NoError(t, err)

	mr.SetTime(start.Add(30 * time.Second))
	second, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.NoError(t, err)
	require.Equal(t, first.MarkedAt, second.MarkedAt)
	require.Equal(t, first.PKCEVerifier, second.PKCEVerifier)

	// Past the window the record stays put but the claim is refused.
	mr.SetTime(start.Add(100 * time.Second))
	_, err = store.MarkInUse(ctx, "s1", 90*time.Second)
	require.ErrorIs(t, err, domerrors.ErrRetryWindowExpired)
	require.True(t, mr.Exists(oauthStateKeyPrefix+"s1"))

	// After the mandated abort the next attempt starts clean.
	require.NoError(t, store.Abort(ctx, "s1"))
	_, err = store.MarkInUse(ctx, "s1", 90*time.Second)
	require.ErrorIs(t, err, domerrors.ErrStateNotFound)
}

func TestMarkInUseAbsentKey(t *testing.T) {
	_, store := newTestStore(t)
	_, err := store.MarkInUse(context.Background(), "missing", 90*time.Second)
	require.ErrorIs(t, err, domerrors.ErrStateNotFound)
}

func TestMarkInUseKeepsLongerTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	mr.SetTime(time.Unix(1700000000, 0))

	require.NoError(t, store.Store(ctx, "s1", pendingRecord(), 300*time.Second))
	_, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.NoError(t, err)

	// 300s remaining is already above the 120s floor; never shortened.
	require.Equal(t, 300*time.Second, mr.TTL(oauthStateKeyPrefix+"s1"))
}

func TestMarkInUseLegacyRecordWithoutStatus(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.SetTime(time.Unix(1700000000, 0))

	// Records written before the status field existed decode as pending.
	legacy := `{"domain":"acme.example.com","provider":"google","pkce_verifier":"v"}`
	require.NoError(t, client.Set(ctx, oauthStateKeyPrefix+"old", legacy, 60*time.Second).Err())

	rec, err := store.MarkInUse(ctx, "old", 90*time.Second)
	require.NoError(t, err)
	require.Equal(t, authflow.StateInUse, rec.Status)
	require.Equal(t, int64(1700000000), rec.MarkedAt)
}

func TestCompleteDeletesRecord(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	mr.SetTime(time.Unix(1700000000, 0))

	require.NoError(t, store.Store(ctx, "s1", pendingRecord(), 60*time.Second))
	_, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.NoError(t, err)

	require.NoError(t, store.Complete(ctx, "s1"))
	require.False(t, mr.Exists(oauthStateKeyPrefix+"s1"))

	// Delete is idempotent; a racing abort is harmless.
	require.NoError(t, store.Abort(ctx, "s1"))
}

func TestStoreExpiresPassively(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "s1", pendingRecord(), 60*time.Second))
	mr.FastForward(61 * time.Second)

	_, err := store.MarkInUse(ctx, "s1", 90*time.Second)
	require.ErrorIs(t, err, domerrors.ErrStateNotFound)
}
