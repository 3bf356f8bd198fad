package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotKey = "billboard:status:snapshot"

// Client wraps go-redis with the snapshot-cache operations the status reader
// needs. The cache only absorbs poll traffic; a miss or a Redis outage falls
// through to the authority.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("redis connected", zap.String("addr", addr))
	return &Client{Client: rdb, logger: logger}, nil
}

// GetSnapshot returns the cached status snapshot if present.
func (c *Client) GetSnapshot(ctx context.Context) ([]byte, bool) {
	payload, err := c.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("snapshot cache read", zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// SetSnapshot stores a snapshot with the given TTL. Failures are logged and
// ignored; caching is best-effort.
func (c *Client) SetSnapshot(ctx context.Context, payload []byte, ttl time.Duration) {
	if err := c.Set(ctx, snapshotKey, payload, ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache write", zap.Error(err))
	}
}
