package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relaykit/relay"
)

// RedisStorage is a Storage backed by a shared Redis instance. Responses
// are stored as JSON under "<prefix>:<name>:<key>".
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisTTL sets the expiry applied to every stored response. A zero
// TTL stores entries without expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStorage) {
		s.ttl = ttl
	}
}

// WithRedisPrefix overrides the key prefix (default "relay").
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

// NewRedisStorage creates a Redis-backed cache storage on an existing
// client. The caller owns the client's lifecycle.
func NewRedisStorage(client *redis.Client, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: "relay",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open verifies connectivity once per call and returns the named cache.
func (s *RedisStorage) Open(ctx context.Context, name string) (Cache, error) {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &redisCache{
		client: s.client,
		prefix: s.prefix + ":" + name + ":",
		ttl:    s.ttl,
	}, nil
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (c *redisCache) Match(ctx context.Context, req *relay.Request) (*relay.Response, error) {
	data, err := c.client.Get(ctx, c.prefix+Key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}

	var res relay.Response
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("cache: decode stored response: %w", err)
	}
	return &res, nil
}

func (c *redisCache) Put(ctx context.Context, req *relay.Request, res *relay.Response) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: encode response: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+Key(req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}
