package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "pokeapi"

// CacheKey identifies a cached collection.
type CacheKey struct {
	// Resource is the logical resource path (e.g. "pokemon:all")
	Resource string

	// Params are the parameters that change the cached content (e.g. {"limit": "151"})
	Params map[string]string
}

// CollectionKey returns the key of the "all entities" collection. A positive
// listingLimit is part of the key because it changes the listing size.
func CollectionKey(listingLimit int) CacheKey {
	key := CacheKey{Resource: "pokemon:all"}
	if listingLimit > 0 {
		key.Params = map[string]string{"limit": strconv.Itoa(listingLimit)}
	}
	return key
}

// String generates a deterministic cache key string.
// Format: pokeapi:resource:param1=val1:param2=val2
//
// Example:
//
//	pokeapi:pokemon:all:limit=151
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	resource := strings.Trim(k.Resource, ":/")
	if resource != "" {
		parts = append(parts, resource)
	}

	// sorted for determinism
	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params[name]))
		}
	}

	return strings.Join(parts, ":")
}
