package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentinel/internal/models"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Address, err)
	}
	return client, nil
}

// RedisSource reads snapshots written by external collectors as JSON values
// under "<prefix>snapshot:<id>".
type RedisSource struct {
	client redis.Cmdable
	prefix string
}

func NewRedisSource(client redis.Cmdable, prefix string) *RedisSource {
	return &RedisSource{client: client, prefix: prefix}
}

// Key returns the Redis key holding the snapshot for id.
func (s *RedisSource) Key(serviceID string) string {
	return s.prefix + "snapshot:" + serviceID
}

func (s *RedisSource) Lookup(ctx context.Context, serviceID string) (models.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.Key(serviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("redis get %s: %w", s.Key(serviceID), err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", serviceID, err)
	}
	snap.Synthetic = false
	return snap, true, nil
}
