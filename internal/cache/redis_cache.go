package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

const searchKeyPrefix = "medicine:search:"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed medicine search cache. It pings the
// server so a misconfigured address fails at startup rather than on first use.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (MedicineSearchCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to redis at %s: %w", addr, err)
	}

	return &redisCache{client: client, ttl: ttl}, nil
}

func searchKey(query string) string {
	return searchKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

func (c *redisCache) Get(ctx context.Context, query string) ([]entity.MedicineSearchResult, bool, error) {
	data, err := c.client.Get(ctx, searchKey(query)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get failed: %w", err)
	}

	var results []entity.MedicineSearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten
		return nil, false, nil
	}
	return results, true, nil
}

func (c *redisCache) Set(ctx context.Context, query string, results []entity.MedicineSearchResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("cache: marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, searchKey(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set failed: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate failed: %w", err)
	}
	return nil
}
