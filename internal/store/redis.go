package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Can0Ngu1/bot-web/internal/dedup"
)

// notifiedKey is the Redis set holding all notified bid codes.
const notifiedKey = "bidwatch:notified"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisNotified keeps the notified-code set in a Redis set. Since the set
// only ever grows, SADD of the full contents is equivalent to a rewrite.
type RedisNotified struct {
	rdb *redis.Client
}

// NewRedisNotified returns a notified-set store backed by rdb.
func NewRedisNotified(rdb *redis.Client) *RedisNotified {
	return &RedisNotified{rdb: rdb}
}

// Load returns the full set. Unlike the file backend there is no local
// fallback: an unreachable Redis is a real error and the cycle must not run
// with an empty set, or every visible bid would be re-notified.
func (n *RedisNotified) Load(ctx context.Context) (dedup.Set, error) {
	codes, err := n.rdb.SMembers(ctx, notifiedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", notifiedKey, err)
	}
	return dedup.NewSet(codes...), nil
}

// Save registers every code in the set.
func (n *RedisNotified) Save(ctx context.Context, set dedup.Set) error {
	codes := set.Codes()
	if len(codes) == 0 {
		return nil
	}
	members := make([]any, len(codes))
	for i, c := range codes {
		members[i] = c
	}
	if err := n.rdb.SAdd(ctx, notifiedKey, members...).Err(); err != nil {
		return fmt.Errorf("sadd %s: %w", notifiedKey, err)
	}
	return nil
}
