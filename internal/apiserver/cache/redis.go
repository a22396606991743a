// Package cache provides the redis connection shared by the session and
// login limiter stores. It supports both an external server and an
// embedded miniredis instance.
package cache

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/common/config"
)

// Redis wraps a client and the embedded server behind it, if any
type Redis struct {
	client   *redis.Client
	embedded *miniredis.Miniredis
	prefix   string
}

// NewRedis connects to cfg.Addr. An empty address starts an embedded
// server, which keeps state only for the life of the process.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	logger = logger.Named("cache")
	r := &Redis{prefix: cfg.Prefix}

	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded redis: %w", err)
		}
		r.embedded = mr
		r.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Info("embedded redis started", zap.String("addr", mr.Addr()))
		return r, nil
	}

	r.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return r, nil
}

// Client returns the underlying client
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Key prefixes name with the configured namespace
func (r *Redis) Key(name string) string {
	return r.prefix + name
}

// Embedded reports whether the embedded server is in use
func (r *Redis) Embedded() bool {
	return r.embedded != nil
}

// Close closes the client and stops the embedded server
func (r *Redis) Close() error {
	err := r.client.Close()
	if r.embedded != nil {
		r.embedded.Close()
	}
	return err
}
