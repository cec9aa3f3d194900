package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the shared Redis client. One client serves the whole process
// so the engagement stream publisher and the workers reuse its pool.
type Client struct {
	*redis.Client
}

// NewClient creates a Redis client from a URL of the form
// redis://[:password@]host:port[/db].
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{Client: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity; called at startup to fail fast.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
