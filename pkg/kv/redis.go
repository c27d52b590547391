package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/japaniel/newsreader/pkg/vocab"
)

// Redis stores slots as plain string keys under a prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// ConnectRedis parses url (a redis:// URL or a bare host:port), connects and pings.
func ConnectRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opt.Addr, err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(name string) string { return r.prefix + name }

func (r *Redis) Read(ctx context.Context, name string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, vocab.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key(name), err)
	}
	return v, nil
}

func (r *Redis) Write(ctx context.Context, name string, data []byte) error {
	if err := r.client.Set(ctx, r.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(name), err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
