package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces presence keys in a shared Redis.
const KeyPrefix = "kinklink:presence:"

// RedisTracker stores each lease as a key with an expiry, so entries of a
// crashed node lapse on their own.
type RedisTracker struct {
	rdb *redis.Client
}

// NewRedisTracker wraps an existing client.
func NewRedisTracker(rdb *redis.Client) *RedisTracker {
	return &RedisTracker{rdb: rdb}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("presence: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("presence: ping redis: %w", err)
	}
	return rdb, nil
}

func (t *RedisTracker) Refresh(ctx context.Context, uid, identity string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := t.rdb.Set(ctx, KeyPrefix+uid, identity, ttl).Err(); err != nil {
		return fmt.Errorf("presence: refresh %s: %w", uid, err)
	}
	return nil
}

func (t *RedisTracker) Get(ctx context.Context, uid string) (string, bool, error) {
	v, err := t.rdb.Get(ctx, KeyPrefix+uid).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("presence: get %s: %w", uid, err)
	}
	return v, true, nil
}

func (t *RedisTracker) GetMany(ctx context.Context, uids []string) (map[string]string, error) {
	out := make(map[string]string, len(uids))
	if len(uids) == 0 {
		return out, nil
	}
	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = KeyPrefix + uid
	}
	vals, err := t.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: mget: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[uids[i]] = s
		}
	}
	return out, nil
}

func (t *RedisTracker) Remove(ctx context.Context, uid string) error {
	if err := t.rdb.Del(ctx, KeyPrefix+uid).Err(); err != nil {
		return fmt.Errorf("presence: remove %s: %w", uid, err)
	}
	return nil
}
