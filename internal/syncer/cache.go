package syncer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"bloodbank/internal/domain"
)

// DedupCache remembers the content fingerprint of every record already
// accepted by the registry, keyed by sync type and entity id. Entries have
// no expiry: they are superseded by a newer fingerprint for the same
// identity or wiped by an explicit Clear. Safe for concurrent use across
// sync types.
type DedupCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewDedupCache builds an empty cache.
func NewDedupCache() *DedupCache {
	return &DedupCache{entries: make(map[string]string)}
}

// Seen reports whether the record was already submitted with this exact
// fingerprint.
func (c *DedupCache) Seen(t domain.SyncType, id, fingerprint string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey(t, id)] == fingerprint
}

// Remember stores the fingerprint of a record the registry accepted,
// replacing any older fingerprint for the same identity.
func (c *DedupCache) Remember(t domain.SyncType, id, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(t, id)] = fingerprint
}

// Clear forgets everything. The next sync of any type resubmits its whole
// window.
func (c *DedupCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}

// Len returns the number of cached entries.
func (c *DedupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(t domain.SyncType, id string) string {
	return string(t) + "|" + id
}

// Fingerprint hashes the canonical JSON encoding of a record.
func Fingerprint(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		// Domain records are plain structs; this cannot happen for them.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
