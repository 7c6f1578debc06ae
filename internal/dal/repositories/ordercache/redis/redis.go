package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

const (
	keyPrefix = "bookstore:order"

	// Generations outlive any read that could still hold one.
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] under KEYS[1] for ARGV[3] ms only while
// KEYS[2] still holds the generation ARGV[1]. A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// OrderCache stores order details as JSON keyed by order code.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOrderCache creates a cache whose entries expire after ttl.
func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	return &OrderCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func key(code string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, code)
}

func generationKey(code string) string {
	return key(code) + ":gen"
}

// Get returns the cached order or nil on a miss.
func (c *OrderCache) Get(ctx context.Context, code string) (*order.Order, error) {
	raw, err := c.rdb.Get(ctx, key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached order: %w", err)
	}

	var o order.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("failed to decode cached order: %w", err)
	}

	return &o, nil
}

// Generation returns the number of times the order has been invalidated.
func (c *OrderCache) Generation(ctx context.Context, code string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(code)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get order cache generation: %w", err)
	}

	return gen, nil
}

// Set stores the order under its code unless it was invalidated after generation was read.
func (c *OrderCache) Set(ctx context.Context, o *order.Order, generation int64) (bool, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return false, fmt.Errorf("failed to encode order: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.rdb,
		[]string{key(o.Code), generationKey(o.Code)},
		strconv.FormatInt(generation, 10),
		raw,
		c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache order: %w", err)
	}

	return stored == 1, nil
}

// Invalidate drops the cached entries of the given orders and bumps their generations.
func (c *OrderCache) Invalidate(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			pipe.Incr(ctx, generationKey(code))
			pipe.Expire(ctx, generationKey(code), generationTTL)
			pipe.Del(ctx, key(code))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached orders: %w", err)
	}

	return nil
}
