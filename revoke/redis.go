package revoke

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig contains configuration options for the Redis revocation list.
type RedisConfig struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys.
	// Default: "bearer:revoked:"
	KeyPrefix string
}

// RedisList implements List using one Redis key per revoked token ID, so a
// revocation can expire together with the token it bans.
type RedisList struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisList creates a Redis-backed revocation list.
func NewRedisList(cfg RedisConfig) (*RedisList, error) {
	if cfg.Client == nil {
		return nil, errors.New("revoke: redis client is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "bearer:revoked:"
	}
	return &RedisList{client: cfg.Client, keyPrefix: prefix}, nil
}

// Revoke marks a token ID as revoked. A non-zero ttl lets the entry lapse
// once the token itself can no longer be valid.
func (l *RedisList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return l.client.Set(ctx, l.keyPrefix+tokenID, "1", ttl).Err()
}

// Revoked implements List.
func (l *RedisList) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ List = (*RedisList)(nil)
