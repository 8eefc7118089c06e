// Package collections implements the per-session collection-ID cache
// (C2): a map from "scope.collection" path to the server-assigned 32-bit
// collection UID, resolved once per path via GET_COLLECTION_ID and
// reused for every subsequent key in that collection.
package collections

import "sync"

// DefaultScope and DefaultCollection name the bucket's default
// collection, always implicitly resolved (uid 0, never looked up).
const (
	DefaultScope      = "_default"
	DefaultCollection = "_default"
)

const defaultUID = uint32(0)

// Cache maps scope.collection paths to collection UIDs for one session.
// Safe for concurrent use; the command runtime invalidates entries on
// unknown_collection while other commands resolve them concurrently.
type Cache struct {
	mu   sync.Mutex
	uids map[string]uint32
}

// New constructs an empty Cache, pre-seeded with the default collection.
func New() *Cache {
	c := &Cache{uids: make(map[string]uint32)}
	c.uids[Path(DefaultScope, DefaultCollection)] = defaultUID
	return c
}

// Path formats the cache key for a scope.collection pair.
func Path(scope, collection string) string {
	return scope + "." + collection
}

// IsDefault reports whether scope.collection is the implicit default,
// which is never placed on the wire as a LEB128 prefix.
func IsDefault(scope, collection string) bool {
	return scope == DefaultScope && collection == DefaultCollection
}

// Lookup returns the cached UID for path and whether it was present.
func (c *Cache) Lookup(path string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid, ok := c.uids[path]
	return uid, ok
}

// Store records a resolved UID for path, e.g. after GET_COLLECTION_ID
// succeeds.
func (c *Cache) Store(path string, uid uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uids[path] = uid
}

// Invalidate removes path from the cache, e.g. after a command observes
// unknown_collection for it. A subsequent Lookup misses and the caller
// re-issues GET_COLLECTION_ID.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.uids, path)
}

// Clear empties the cache, e.g. when the session is stopped and its
// resolved collection IDs can no longer be trusted under a new
// connection.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uids = make(map[string]uint32)
	c.uids[Path(DefaultScope, DefaultCollection)] = defaultUID
}
