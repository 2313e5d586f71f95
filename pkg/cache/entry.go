package cache

import (
	"time"

	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// Entry is a cached collection as stored in the Redis tier.
type Entry struct {
	// Items are the entities in listing order
	Items []pokemon.Pokemon `json:"items"`

	// CachedAt is when the collection was populated
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`
}

// NewEntry wraps items in an entry that expires after ttl.
func NewEntry(items []pokemon.Pokemon, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Items:    items,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
