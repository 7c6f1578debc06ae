package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Client represents a Redis client.
type Client struct {
	rdb *redis.Client
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close closes the client for graceful shutdown.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MustNewClient creates a new Redis client.
func MustNewClient() *Client {
	host := viper.GetString("redis.host")
	if host == "" {
		host = "redis"
	}
	port := viper.GetInt("redis.port")
	if port == 0 {
		port = 6379
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	slog.Info("Redis connected", "host", host, "port", port)

	return &Client{
		rdb: rdb,
	}
}
