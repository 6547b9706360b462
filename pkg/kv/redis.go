package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mindovermyth/sessionhub/pkg/config"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Redis implements Mirror and Bus on a shared go-redis client. Session state
// keys carry no TTL: the whole set is destroyed only by explicit user action,
// never by time or session expiry.
type Redis struct {
	raw *redis.Client
}

// NewRedis bootstraps a Redis client with pooling/timeouts and verifies
// connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Redis, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis mirror connected")
	}
	return &Redis{raw: raw}, nil
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
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Get returns the string value stored at key, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.raw == nil {
		return "", errors.New("redis client not initialized")
	}
	val, err := r.raw.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set stores a string value without expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if r.raw == nil {
		return errors.New("redis client not initialized")
	}
	return r.raw.Set(ctx, key, value, 0).Err()
}

// Delete removes the key. Absent keys are not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.raw == nil {
		return errors.New("redis client not initialized")
	}
	return r.raw.Del(ctx, key).Err()
}

// Publish sends a payload on the given channel via Redis pub/sub.
func (r *Redis) Publish(ctx context.Context, channel, payload string) error {
	if r.raw == nil {
		return errors.New("redis client not initialized")
	}
	return r.raw.Publish(ctx, channel, payload).Err()
}

// Subscribe attaches to the channel and forwards payloads into a buffered
// channel. Messages that would block are dropped. The returned cancel func
// detaches the subscription and closes the channel.
func (r *Redis) Subscribe(ctx context.Context, channel string, buffer int) (<-chan string, func(), error) {
	if r.raw == nil {
		return nil, nil, errors.New("redis client not initialized")
	}
	if buffer <= 0 {
		buffer = 1
	}

	sub := r.raw.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan string, buffer)
	done := make(chan struct{})

	go func() {
		defer close(out)
		src := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// subscriber is behind; drop rather than block
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}

	return out, cancel, nil
}

// Ping verifies the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if r.raw == nil {
		return errors.New("redis client not initialized")
	}
	return r.raw.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (r *Redis) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
