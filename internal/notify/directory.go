package notify

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/redis/go-redis/v9"
)

// Directory resolves the manager responsible for an agent.
type Directory interface {
	Manager(ctx context.Context, agentID string) (string, error)
}

// StaticDirectory looks managers up in a fixed map.
type StaticDirectory map[string]string

// NewStaticDirectory copies managers into a StaticDirectory.
func NewStaticDirectory(managers map[string]string) StaticDirectory {
	d := make(StaticDirectory, len(managers))
	maps.Copy(d, managers)
	return d
}

func (d StaticDirectory) Manager(_ context.Context, agentID string) (string, error) {
	if m, ok := d[agentID]; ok && m != "" {
		return m, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoManager, agentID)
}

// RedisDirectory reads managers from a Redis hash keyed by agent id.
type RedisDirectory struct {
	client *redis.Client
	key    string
}

// NewRedisDirectory creates a client for cfg. No connection is made until
// the first lookup.
func NewRedisDirectory(cfg *RedisConfig) *RedisDirectory {
	return &RedisDirectory{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		key: cfg.Key,
	}
}

func (d *RedisDirectory) Manager(ctx context.Context, agentID string) (string, error) {
	m, err := d.client.HGet(ctx, d.key, agentID).Result()
	if errors.Is(err, redis.Nil) || (err == nil && m == "") {
		return "", fmt.Errorf("%w: %s", ErrNoManager, agentID)
	}
	if err != nil {
		return "", fmt.Errorf("lookup manager for %s: %w", agentID, err)
	}
	return m, nil
}

// Set assigns manager to agentID.
func (d *RedisDirectory) Set(ctx context.Context, agentID, manager string) error {
	return d.client.HSet(ctx, d.key, agentID, manager).Err()
}

// Ping checks connectivity.
func (d *RedisDirectory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close closes the client.
func (d *RedisDirectory) Close() error {
	return d.client.Close()
}
