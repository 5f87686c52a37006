// Package stats keeps per-route request counters in Redis so they survive
// restarts and are shared between API replicas.
package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/podfacts/backend/pkg/logger"
)

const requestsKey = "podfacts:requests"

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type Client struct {
	client *redis.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis stats client initialized", zap.String("addr", addr))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Increment(ctx context.Context, route string) error {
	if err := c.client.HIncrBy(ctx, requestsKey, route, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", route, err)
	}
	return nil
}

func (c *Client) Counts(ctx context.Context) (map[string]int64, error) {
	raw, err := c.client.HGetAll(ctx, requestsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for route, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s holds %q: %w", route, v, err)
		}
		counts[route] = n
	}
	return counts, nil
}
