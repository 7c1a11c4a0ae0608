package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain/authflow"
)

const magicLinkKeyPrefix = "magic_link:"

// MagicLinkStore keeps magic-link records in Redis. Consume uses GETDEL so a
// link is redeemable at most once even under concurrent requests.
type MagicLinkStore struct {
	client *redis.Client
}

func NewMagicLinkStore(client *redis.Client) *MagicLinkStore {
	return &MagicLinkStore{client: client}
}

func (s *MagicLinkStore) Put(ctx context.Context, key string, rec *authflow.MagicLinkRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, magicLinkKeyPrefix+key, raw, ttl).Err()
}

func (s *MagicLinkStore) Consume(ctx context.Context, key string) (*authflow.MagicLinkRecord, error) {
	raw, err := s.client.GetDel(ctx, magicLinkKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var rec authflow.MagicLinkRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ ports.MagicLinkStore = (*MagicLinkStore)(nil)
