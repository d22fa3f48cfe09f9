package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "credential:"

// Compile-time check: *RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// RedisStore implements Store using go-redis directly.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put stores or replaces the encrypted credential for a user. LinkedAt is
// preserved across replacements so "linked since" survives token refresh.
func (s *RedisStore) Put(ctx context.Context, userID, encrypted string) error {
	now := time.Now().UTC()
	rec := Record{UserID: userID, Encrypted: encrypted, LinkedAt: now, UpdatedAt: now}

	if existing, err := s.get(ctx, userID); err == nil {
		rec.LinkedAt = existing.LinkedAt
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credential record: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("store credential for %q: %w", userID, err)
	}
	return nil
}

// Get returns the encrypted credential for a user, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	rec, err := s.get(ctx, userID)
	if err != nil {
		return "", err
	}
	return rec.Encrypted, nil
}

// Delete removes the credential for a user. Deleting an unlinked user
// returns ErrNotFound.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	n, err := s.rdb.Del(ctx, redisKeyPrefix+userID).Result()
	if err != nil {
		return fmt.Errorf("delete credential for %q: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, userID string) (*Record, error) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for %q: %w", userID, err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal credential record for %q: %w", userID, err)
	}
	return &rec, nil
}
