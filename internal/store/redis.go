package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"accident-monitor/internal/config"
	"accident-monitor/internal/domain"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    time.Duration(cfg.StateCacheTTLSeconds) * time.Second,
	}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// CacheAccidentState writes the latest-accident hash for a vehicle and, when
// the event carries coordinates, indexes the crash site in the geo set.
// Read by the dashboard process; this service only writes through.
func (r *RedisStore) CacheAccidentState(ctx context.Context, evt *domain.AccidentEvent, summary string) error {
	stateData := map[string]interface{}{
		"vehicle_id":  evt.VehicleRef,
		"notes":       summary,
		"timestamp":   evt.Timestamp,
		"received_at": evt.CreatedAt.Unix(),
	}
	if evt.Intensity != nil {
		stateData["intensity"] = *evt.Intensity
	}
	if evt.Lat != nil {
		stateData["lat"] = *evt.Lat
	}
	if evt.Lng != nil {
		stateData["lng"] = *evt.Lng
	}

	stateKey := fmt.Sprintf("vehicle:%s:state", evt.VehicleRef)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, r.ttl)
	if evt.Lat != nil && evt.Lng != nil {
		pipe.GeoAdd(ctx, "accidents:geo", &redis.GeoLocation{
			Name:      evt.VehicleRef,
			Latitude:  *evt.Lat,
			Longitude: *evt.Lng,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// GetAPIKey returns the label provisioned for a hardware API key, or "" when
// the key is unknown.
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	key := fmt.Sprintf("hardware:auth:%s", apiKey)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}

// SetAPIKey provisions a hardware API key. Used by the seed-keys command.
func (r *RedisStore) SetAPIKey(ctx context.Context, apiKey, label string) error {
	key := fmt.Sprintf("hardware:auth:%s", apiKey)
	return r.client.Set(ctx, key, label, 0).Err()
}
