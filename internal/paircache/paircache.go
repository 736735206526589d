// Package paircache memoizes, per UID, the set of synced and unpaused pairs.
// It never stores state, only which UIDs to notify, so it may be dropped at
// any time.
package paircache

import (
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults used when the caller passes zero values.
const (
	DefaultSize = 10000
	DefaultTTL  = 60 * time.Second
)

// Cache — per-UID pair sets with a size bound and a TTL.
type Cache struct {
	lru *expirable.LRU[string, []string]
}

// New returns a cache holding at most size UIDs for ttl each.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: expirable.NewLRU[string, []string](size, nil, ttl)}
}

// Get returns the cached pair set of uid.
func (c *Cache) Get(uid string) ([]string, bool) {
	pairs, ok := c.lru.Get(uid)
	if !ok {
		return nil, false
	}
	return slices.Clone(pairs), true
}

// AreAllCached reports whether uid has a live entry containing every
// candidate.
func (c *Cache) AreAllCached(uid string, candidates []string) bool {
	pairs, ok := c.lru.Peek(uid)
	if !ok {
		return false
	}
	for _, cand := range candidates {
		if _, found := slices.BinarySearch(pairs, cand); !found {
			return false
		}
	}
	return true
}

// WarmCache replaces the entry of uid with allPairUIDs.
func (c *Cache) WarmCache(uid string, allPairUIDs []string) {
	pairs := slices.Clone(allPairUIDs)
	slices.Sort(pairs)
	pairs = slices.Compact(pairs)
	c.lru.Add(uid, pairs)
}

// Invalidate drops the entries of uids.
func (c *Cache) Invalidate(uids ...string) {
	for _, uid := range uids {
		c.lru.Remove(uid)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }
