package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rtavares/movelaria-backend/pkg/config"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

const (
	keyNamespace      = "mvl"
	sessionPrefix     = "session"
	idempotencyPrefix = "idempotency"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Exists(context.Context, ...string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis connection helpers needed by the console.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// NewWithStore builds a client over a custom command surface (tests).
func NewWithStore(store cmdable) *Client {
	return &Client{store: store}
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func key(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}

// HasSession reports whether the session id minted by the auth service is
// still live.
func (c *Client) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	n, err := c.store.Exists(ctx, key(sessionPrefix, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return n > 0, nil
}

// PutSession registers a session id with the given TTL (local tooling/tests;
// production sessions are written by the auth service).
func (c *Client) PutSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return c.store.Set(ctx, key(sessionPrefix, sessionID), "1", ttl).Err()
}

// SetNX stores the value only when the key is absent. The key lands under
// the shared namespace.
func (c *Client) SetNX(ctx context.Context, k string, value any, ttl time.Duration) (bool, error) {
	return c.store.SetNX(ctx, key(k), value, ttl).Result()
}

// Get reads a namespaced key. Callers observe redis.Nil when it is missing.
func (c *Client) Get(ctx context.Context, k string) (string, error) {
	return c.store.Get(ctx, key(k)).Result()
}

// Del removes the given namespaced keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	namespaced := make([]string, 0, len(keys))
	for _, k := range keys {
		namespaced = append(namespaced, key(k))
	}
	return c.store.Del(ctx, namespaced...).Err()
}

// ClaimIdempotencyKey atomically claims the scoped key for the TTL window.
// It returns false when the key was already claimed, meaning the request is
// a duplicate submission.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, scope, id string, ttl time.Duration) (bool, error) {
	ok, err := c.store.SetNX(ctx, key(idempotencyPrefix, scope, id), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming idempotency key: %w", err)
	}
	return ok, nil
}

// ReleaseIdempotencyKey frees a claimed key so a retried request can proceed
// after a failed attempt.
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, scope, id string) error {
	return c.store.Del(ctx, key(idempotencyPrefix, scope, id)).Err()
}
