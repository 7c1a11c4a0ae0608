package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
)

const oauthStateKeyPrefix = "oauth_state:"

// DefaultTTLBuffer pads the retry window when raising a claimed record's TTL,
// so a record never expires while a permitted retry is still in flight.
const DefaultTTLBuffer = 30 * time.Second

// markInUseScript performs the whole claim as one server-side operation:
// read, status check, window check against the server clock, TTL floor, and
// write. Concurrent callers are linearized by Redis, so exactly one of them
// observes the pending record; the rest see in-use and get the same payload
// back while the window holds.
//
// Replies: {"ok", payload} | {"not_found"} | {"window_expired"}.
var markInUseScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'not_found'}
end
local rec = cjson.decode(raw)
local t = redis.call('TIME')
local now = tonumber(t[1])
local window = tonumber(ARGV[1])
local floor = tonumber(ARGV[2])
local status = rec['status']
if status == nil or status == 'pending' then
  rec['status'] = 'in_use'
  rec['marked_at'] = now
  raw = cjson.encode(rec)
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < floor then
    ttl = floor
  end
  redis.call('SET', KEYS[1], raw, 'PX', ttl)
  return {'ok', raw}
end
local marked = tonumber(rec['marked_at'])
if marked == nil then
  marked = now
end
if now - marked <= window then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < floor then
    ttl = floor
  end
  redis.call('SET', KEYS[1], raw, 'PX', ttl)
  return {'ok', raw}
end
return {'window_expired'}
`)

// OAuthStateStore keeps in-flight authorization-code exchange records in
// Redis. MarkInUse runs as a Lua script so the pending-to-in-use transition
// is atomic and all clock reads come from the Redis server.
type OAuthStateStore struct {
	client *redis.Client
	buffer time.Duration
}

func NewOAuthStateStore(client *redis.Client, buffer time.Duration) *OAuthStateStore {
	if buffer <= 0 {
		buffer = DefaultTTLBuffer
	}
	return &OAuthStateStore{client: client, buffer: buffer}
}

func (s *OAuthStateStore) Store(ctx context.Context, token string, rec *authflow.OAuthStateRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, oauthStateKeyPrefix+token, raw, ttl).Err()
}

func (s *OAuthStateStore) MarkInUse(ctx context.Context, token string, retryWindow time.Duration) (*authflow.OAuthStateRecord, error) {
	floorMillis := (retryWindow + s.buffer).Milliseconds()
	res, err := markInUseScript.Run(ctx, s.client,
		[]string{oauthStateKeyPrefix + token},
		int64(retryWindow.Seconds()), floorMillis).Slice()
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("mark in use: empty script reply")
	}
	tag, _ := res[0].(string)
	switch tag {
	case "ok":
		payload, _ := res[1].(string)
		var rec authflow.OAuthStateRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	case "not_found":
		return nil, domerrors.ErrStateNotFound
	case "window_expired":
		return nil, domerrors.ErrRetryWindowExpired
	}
	return nil, fmt.Errorf("mark in use: unexpected script reply %q", tag)
}

func (s *OAuthStateStore) Complete(ctx context.Context, token string) error {
	return s.client.Del(ctx, oauthStateKeyPrefix+token).Err()
}

func (s *OAuthStateStore) Abort(ctx context.Context, token string) error {
	return s.client.Del(ctx, oauthStateKeyPrefix+token).Err()
}

var _ ports.OAuthStateStore = (*OAuthStateStore)(nil)
