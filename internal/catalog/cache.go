package catalog

import (
	"context"
	"sync"
	"time"

	"updaterelay/internal/models"
)

// Source lists releases for a repository. *Client is the production
// implementation; the observability package wraps it with instrumentation.
type Source interface {
	ListReleases(ctx context.Context, owner, repo string) ([]*models.Release, error)
}

// Provider is the read side consumed by the update resolver.
type Provider interface {
	Releases(ctx context.Context, owner, repo string) ([]*models.Release, error)
}

// snapshot is one cached catalog. Snapshots are replaced whole and never
// mutated, so a reader holding one sees consistent data even after expiry.
type snapshot struct {
	releases  []*models.Release
	fetchedAt time.Time
}

// Cache memoizes release lists per (owner, repo) with a fixed TTL. An
// expired or absent entry is refetched lazily on next access; concurrent
// callers during a miss may each trigger their own fetch, which is safe
// because snapshots are swapped atomically under the mutex. A failed fetch
// is never papered over with stale data.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*snapshot
}

// NewCache creates a catalog cache over the given source.
func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*snapshot),
	}
}

// Releases returns the cached catalog for owner/repo, fetching from the
// source when the entry is absent or older than the TTL.
func (c *Cache) Releases(ctx context.Context, owner, repo string) ([]*models.Release, error) {
	key := owner + "/" + repo

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		releases := entry.releases
		c.mu.Unlock()
		return releases, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock so a slow provider does not serialize
	// unrelated repositories.
	releases, err := c.source.ListReleases(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &snapshot{releases: releases, fetchedAt: c.now()}
	c.mu.Unlock()

	return releases, nil
}

// Invalidate drops the cached entry for owner/repo, forcing the next access
// to refetch.
func (c *Cache) Invalidate(owner, repo string) {
	c.mu.Lock()
	delete(c.entries, owner+"/"+repo)
	c.mu.Unlock()
}
