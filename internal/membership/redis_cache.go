package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rosterKeyPrefix  = "alloc:roster:" // alloc:roster:{project_id}
	DefaultRosterTTL = 5 * time.Minute
)

// RedisCache is a RosterCache shared between dashboard processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A non-positive ttl uses DefaultRosterTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRosterTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, projectID uint64) ([]Membership, bool, error) {
	data, err := c.client.Get(ctx, rosterKey(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read roster %d: %w", projectID, err)
	}

	var roster []Membership
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal roster %d: %w", projectID, err)
	}
	return roster, true, nil
}

func (c *RedisCache) Set(ctx context.Context, projectID uint64, roster []Membership) error {
	if roster == nil {
		roster = []Membership{}
	}
	data, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to marshal roster %d: %w", projectID, err)
	}
	if err := c.client.Set(ctx, rosterKey(projectID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write roster %d: %w", projectID, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, projectID uint64) error {
	if err := c.client.Del(ctx, rosterKey(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate roster %d: %w", projectID, err)
	}
	return nil
}

func rosterKey(projectID uint64) string {
	return rosterKeyPrefix + strconv.FormatUint(projectID, 10)
}
