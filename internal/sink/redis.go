package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/correlate/internal/ir"
)

// ListPusher is the subset of *redis.Client the Redis sink uses.
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Close() error
}

// Redis appends records as JSON to a Redis list.
type Redis struct {
	client ListPusher
	key    string
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr string, db int, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisClient(client, key), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client ListPusher, key string) *Redis {
	return &Redis{client: client, key: key}
}

// Write implements Sink.
func (r *Redis) Write(ctx context.Context, res ir.ExecResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", r.key, err)
	}
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error {
	return r.client.Close()
}
