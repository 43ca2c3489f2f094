// Package cache provides read-side projections kept in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BalanceCache caches per-user XP balances. The ledger is the source of
// truth; the cache is invalidated on every award and repopulated from the
// ledger sum on the next read, so it can never diverge for longer than one
// read cycle.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache creates a new balance cache
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		ttl:    ttl,
	}
}

func balanceKey(userID int) string {
	return fmt.Sprintf("xp:balance:%d", userID)
}

// Get retrieves a cached balance. The second return value reports a hit.
func (c *BalanceCache) Get(ctx context.Context, userID int) (int, bool, error) {
	value, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cached balance: %w", err)
	}

	balance, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached balance: %w", err)
	}

	return balance, true, nil
}

// Set stores a balance with the configured TTL
func (c *BalanceCache) Set(ctx context.Context, userID, balance int) error {
	if err := c.client.Set(ctx, balanceKey(userID), strconv.Itoa(balance), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

// Invalidate drops the cached balance for a user
func (c *BalanceCache) Invalidate(ctx context.Context, userID int) error {
	if err := c.client.Del(ctx, balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}
