package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a match's keys outlive its last write.
const DefaultTTL = 6 * time.Hour

// Client wraps the Redis client for match memory and live turn operations.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a Redis client from a connection URL.
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb, ttl: DefaultTTL}, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, ttl: DefaultTTL}
}

// SetTTL changes the expiry applied on every write. Zero keeps keys forever.
func (c *Client) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
