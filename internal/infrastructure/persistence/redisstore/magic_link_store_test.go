package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/latchauth/latch/internal/domain/authflow"
)

func TestConsumeIsAtMostOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewMagicLinkStore(client)
	ctx := context.Background()

	rec := &authflow.MagicLinkRecord{TenantDomain: "acme.example.com", Email: "u@x.com"}
	require.NoError(t, store.Put(ctx, "k1", rec, 15*time.Minute))

	got, err := store.Consume(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "u@x.com", got.Email)
	require.Equal(t, "acme.example.com", got.TenantDomain)

	got, err = store.Consume(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestConsumeExpiredLink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewMagicLinkStore(client)
	ctx := context.Background()

	rec := &authflow.MagicLinkRecord{TenantDomain: "acme.example.com", Email: "u@x.com"}
	require.NoError(t, store.Put(ctx, "k1", rec, time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := store.Consume(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPutOverwritesPreviousLink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewMagicLinkStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", &authflow.MagicLinkRecord{TenantDomain: "a", Email: "old@x.com"}, time.Minute))
	require.NoError(t, store.Put(ctx, "k1", &authflow.MagicLinkRecord{TenantDomain: "a", Email: "new@x.com"}, time.Minute))

	got, err := store.Consume(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "new@x.com", got.Email)
}
