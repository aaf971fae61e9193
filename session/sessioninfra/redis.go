package sessioninfra

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// scanCount is the batch size for SCAN when listing sessions.
const scanCount = 100

// RedisStore persists session records as JSON values keyed by session
// ID, with the TTL enforced natively by Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisTTL overrides the default session TTL.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    session.DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Create(ctx context.Context, rec *session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return session.ErrDecodeFailed(err)
	}
	if err := s.client.Set(ctx, rec.SessionID, data, s.ttl).Err(); err != nil {
		return session.ErrStoreUnavailable(err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	data, err := s.client.Get(ctx, sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, session.ErrStoreUnavailable(err)
	}
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, session.ErrDecodeFailed(err)
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *session.Record) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, session.ErrDecodeFailed(err)
	}
	// SET XX writes only when the key still exists, so an expired
	// session cannot be resurrected by a late save.
	ok, err := s.client.SetXX(ctx, rec.SessionID, data, s.ttl).Result()
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return ok, nil
}

func (s *RedisStore) Extend(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.client.Expire(ctx, sessionID, s.ttl).Result()
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, sessionID).Result()
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return n > 0, nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID string, limit int) ([]*session.Record, error) {
	var out []*session.Record
	iter := s.client.Scan(ctx, 0, session.IDPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, session.ErrStoreUnavailable(err)
		}
		var rec session.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			logx.WithError(err).WithField("key", key).Warn("Skipping undecodable session record")
			continue
		}
		if rec.UserID == userID {
			out = append(out, &rec)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, session.ErrStoreUnavailable(err)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
