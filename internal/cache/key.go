package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key joins name parts with ':' into a cache key. Parts are used verbatim.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// SortedList renders items sorted and comma separated, so that equal sets
// produce equal key parts regardless of input order.
func SortedList(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// HashKey returns the SHA-256 hash of a key as lowercase hex.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// ShortHash returns the first 8 hex characters of HashKey.
func ShortHash(key string) string {
	return HashKey(key)[:8]
}
