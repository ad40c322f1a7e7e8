package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmcdole/checkmark/internal/domain"
)

const (
	// DefaultLibraryCacheDuration is how long the full library id set is trusted
	DefaultLibraryCacheDuration = 10 * time.Minute

	// DefaultSingleSongCacheDuration is how long one track's verdict is trusted
	DefaultSingleSongCacheDuration = 2 * time.Minute

	defaultMaxEntries = 10000
)

// DefaultDurations returns the built-in cache TTLs
func DefaultDurations() domain.CacheDurations {
	return domain.CacheDurations{
		Library:    DefaultLibraryCacheDuration,
		SingleSong: DefaultSingleSongCacheDuration,
	}
}

// Status is a point-in-time view of the cache tiers
type Status struct {
	Loaded    bool      // In-memory id set present
	Count     int       // Size of the in-memory id set
	FetchedAt time.Time // When the in-memory set was fetched or snapshotted
	Entries   int       // Per-item verdicts held (including not-yet-evicted stale ones)
}

// MembershipCache owns the library id set (memory + snapshot) and the
// per-track verdict table. Resolution order is memory, snapshot, remote.
type MembershipCache struct {
	fetcher  domain.LibraryFetcher
	store    domain.SnapshotStore
	creds    domain.CredentialProvider
	settings func() domain.CacheDurations
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	catalogIDs domain.CatalogIDSet // nil until resolved
	fetchedAt  time.Time
	generation uint64 // bumped by Invalidate
	entries    *lru.Cache[string, domain.MembershipEntry]
	maxEntries int
}

// Option customizes a MembershipCache
type Option func(*MembershipCache)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *MembershipCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxEntries bounds the per-item verdict table
func WithMaxEntries(n int) Option {
	return func(c *MembershipCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewMembershipCache creates a cache. settings is consulted on every call so
// TTL changes apply to data that is already cached.
func NewMembershipCache(
	fetcher domain.LibraryFetcher,
	store domain.SnapshotStore,
	creds domain.CredentialProvider,
	settings func() domain.CacheDurations,
	logger *slog.Logger,
	opts ...Option,
) *MembershipCache {
	if logger == nil {
		logger = slog.Default()
	}
	if settings == nil {
		settings = DefaultDurations
	}
	if creds == nil {
		creds = domain.CredentialFunc(func() (domain.Tokens, bool) { return domain.Tokens{}, false })
	}

	c := &MembershipCache{
		fetcher:    fetcher,
		store:      store,
		creds:      creds,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Only fails for a non-positive size, which WithMaxEntries rejects
	c.entries, _ = lru.New[string, domain.MembershipEntry](c.maxEntries)
	return c
}

// CatalogIDs returns the library id set, resolving through memory, the
// durable snapshot, then the remote catalog.
//
// An empty fetch result is never cached: it is returned together with
// domain.ErrLibraryUnavailable so the next call tries the network again.
func (c *MembershipCache) CatalogIDs(ctx context.Context) (domain.CatalogIDSet, error) {
	ttl := c.settings().Library
	now := c.now()

	// 1. Memory
	c.mu.RLock()
	ids, fetchedAt, gen := c.catalogIDs, c.fetchedAt, c.generation
	c.mu.RUnlock()
	if ids != nil && now.Sub(fetchedAt) < ttl {
		c.logger.Debug("using in-memory library cache", "count", ids.Len())
		return ids, nil
	}

	// 2. Durable snapshot, judged against the current TTL
	if snapshot, ok := c.store.Load(); ok {
		if snapshot.FreshAt(now, ttl) {
			ids := snapshot.IDSet()
			if c.adopt(gen, ids, snapshot.SavedAt(), false) {
				c.logger.Debug("using library snapshot",
					"count", ids.Len(),
					"age", now.Sub(snapshot.SavedAt()).Round(time.Second))
				return ids, nil
			}
			// Invalidated while loading; the snapshot read may predate the clear
			c.logger.Debug("discarding library snapshot read before invalidation")
		} else {
			c.logger.Debug("library snapshot expired", "savedAt", snapshot.SavedAt())
		}
	}

	// 3. Remote
	tokens, _ := c.creds.CurrentTokens()
	ids = c.fetcher.FetchLibraryIDs(ctx, tokens)
	if ids.Len() == 0 {
		c.logger.Warn("library unavailable, not caching empty result")
		return domain.CatalogIDSet{}, domain.ErrLibraryUnavailable
	}

	if !c.adopt(gen, ids, c.now(), true) {
		c.logger.Debug("library cache invalidated during fetch, result not cached", "count", ids.Len())
		return ids, nil
	}
	c.logger.Info("library cache refreshed", "count", ids.Len())
	return ids, nil
}

// adopt installs ids as the in-memory set unless Invalidate ran since gen was
// read. save also writes the snapshot, under the same lock Invalidate clears
// it under.
func (c *MembershipCache) adopt(gen uint64, ids domain.CatalogIDSet, at time.Time, save bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return false
	}
	c.catalogIDs = ids
	c.fetchedAt = at
	if save {
		c.store.Save(ids)
	}
	return true
}

// Lookup returns a still-valid verdict for id. Expired verdicts are evicted.
func (c *MembershipCache) Lookup(id string) (domain.MembershipEntry, bool) {
	ttl := c.settings().SingleSong

	// Write lock: an expired entry is removed
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(id)
	if !ok {
		return domain.MembershipEntry{}, false
	}
	if entry.ExpiredAt(c.now(), ttl) {
		c.entries.Remove(id)
		return domain.MembershipEntry{}, false
	}
	return entry, true
}

// IsCached reports whether id has a still-valid verdict
func (c *MembershipCache) IsCached(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Update records a verdict for id, stamped now
func (c *MembershipCache) Update(id string, inLibrary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(id, domain.MembershipEntry{
		IsInLibrary: inLibrary,
		Timestamp:   c.now(),
	})
}

// Invalidate drops every tier: the in-memory set, the per-item verdicts and
// the durable snapshot. Readers never observe a partially cleared cache.
func (c *MembershipCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.catalogIDs = nil
	c.fetchedAt = time.Time{}
	c.entries.Purge()
	c.store.Clear()

	c.logger.Info("invalidated library cache")
}

// Dispose releases memory held by the cache. The durable snapshot is kept so
// the next process can start warm; the store itself is closed by its owner.
func (c *MembershipCache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.catalogIDs = nil
	c.fetchedAt = time.Time{}
	c.entries.Purge()
}

// Status reports what the cache currently holds
func (c *MembershipCache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		Loaded:    c.catalogIDs != nil,
		Count:     c.catalogIDs.Len(),
		FetchedAt: c.fetchedAt,
		Entries:   c.entries.Len(),
	}
}
