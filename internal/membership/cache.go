package membership

import (
	"context"
	"sync"
)

// RosterCache holds rosters keyed by project id. It is a projection of the
// backend and may be dropped at any time.
type RosterCache interface {
	Get(ctx context.Context, projectID uint64) ([]Membership, bool, error)
	Set(ctx context.Context, projectID uint64, roster []Membership) error
	Invalidate(ctx context.Context, projectID uint64) error
}

// MemoryCache is an in-process RosterCache.
type MemoryCache struct {
	mu      sync.RWMutex
	rosters map[uint64][]Membership
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{rosters: make(map[uint64][]Membership)}
}

func (c *MemoryCache) Get(_ context.Context, projectID uint64) ([]Membership, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	roster, ok := c.rosters[projectID]
	if !ok {
		return nil, false, nil
	}
	return cloneRoster(roster), true, nil
}

func (c *MemoryCache) Set(_ context.Context, projectID uint64, roster []Membership) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rosters[projectID] = cloneRoster(roster)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, projectID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rosters, projectID)
	return nil
}

func cloneRoster(roster []Membership) []Membership {
	out := make([]Membership, len(roster))
	copy(out, roster)
	return out
}
