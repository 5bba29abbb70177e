package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkrest1/content-management-system-api/internal/ports"
)

const lockoutKeyPrefix = "cms:lockout:"

// RedisLockoutStore keeps failure counters in Redis hashes so every API
// replica sees the same lockout state.
type RedisLockoutStore struct {
	client *redis.Client
}

func NewRedisLockoutStore(client *redis.Client) *RedisLockoutStore {
	return &RedisLockoutStore{client: client}
}

func (s *RedisLockoutStore) Get(ctx context.Context, key string) (ports.LockoutState, error) {
	data, err := s.client.HGetAll(ctx, lockoutKeyPrefix+key).Result()
	if err != nil {
		return ports.LockoutState{}, err
	}
	return decodeLockout(data), nil
}

// RecordFailure counts one failure inside lockoutWindow and locks the key
// once threshold is reached. A lock that has already lapsed starts a new count.
func (s *RedisLockoutStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	redisKey := lockoutKeyPrefix + key

	current, err := s.Get(ctx, key)
	if err != nil {
		return ports.LockoutState{}, err
	}
	if current.LockedUntil != nil && !current.LockedAt(now) {
		if err := s.client.Del(ctx, redisKey).Err(); err != nil {
			return ports.LockoutState{}, err
		}
	}

	var incr *redis.IntCmd
	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, redisKey, "failed_count", 1)
		// NX keeps the window anchored at the first failure.
		p.ExpireNX(ctx, redisKey, lockoutWindow)
		return nil
	}); err != nil {
		return ports.LockoutState{}, err
	}

	count := int(incr.Val())
	state := ports.LockoutState{FailedCount: count}
	if count < threshold {
		return state, nil
	}

	lockedUntil := now.Add(lockoutWindow).UTC()
	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, redisKey, "locked_until", lockedUntil.Unix())
		p.Expire(ctx, redisKey, lockoutWindow)
		return nil
	}); err != nil {
		return ports.LockoutState{}, err
	}
	state.LockedUntil = &lockedUntil
	return state, nil
}

func (s *RedisLockoutStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockoutKeyPrefix+key).Err()
}

func decodeLockout(data map[string]string) ports.LockoutState {
	state := ports.LockoutState{}
	if raw, ok := data["failed_count"]; ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			state.FailedCount = n
		}
	}
	if raw, ok := data["locked_until"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			state.LockedUntil = &t
		}
	}
	return state
}
