package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

const (
	// keyPrefix namespaces every dashboard cache key.
	keyPrefix = "dash"

	// maxKeyLength bounds the rendered key. Longer keys are collapsed to a
	// digest form so the backend never sees oversized keys.
	maxKeyLength = 250

	// collapsedMarker is the second segment of digest-collapsed keys.
	// Collapsed keys can only be targeted by the dash:hash:* wildcard and
	// are excluded from the warmer's keep-fresh set.
	collapsedMarker = "hash"
)

// KeyCodec derives deterministic cache keys and glob-style invalidation
// patterns from (class, scope, sub-dimension, filters) tuples.
type KeyCodec struct{}

// NewKeyCodec creates a key codec.
func NewKeyCodec() *KeyCodec {
	return &KeyCodec{}
}

// Encode renders the cache key for the given tuple. Components are joined
// with ':' in a fixed order; empty components are omitted. Filter maps are
// canonicalized by key order before hashing, so semantically identical maps
// always produce the same key. Keys whose natural rendering exceeds 250
// characters collapse to "dash:hash:<16 hex>".
func (c *KeyCodec) Encode(class Class, scope, subDimension string, filters map[string]string) string {
	parts := make([]string, 0, 6)
	parts = append(parts, keyPrefix, string(class))

	if scope != "" {
		parts = append(parts, "user", scope)
	}
	if subDimension != "" {
		parts = append(parts, subDimension)
	}
	if len(filters) > 0 {
		parts = append(parts, "filters", filterDigest(filters))
	}

	key := strings.Join(parts, ":")
	if len(key) <= maxKeyLength {
		return key
	}

	// One-way collapse: the class prefix is lost, so these keys are only
	// matchable by the dash:hash:* wildcard.
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%s:%s", keyPrefix, collapsedMarker, hex.EncodeToString(sum[:8]))
}

// Pattern derives the glob pattern that matches every key of the class,
// optionally narrowed to one owner scope. An empty scope matches globally.
func (c *KeyCodec) Pattern(class Class, scope string) string {
	if scope == "" {
		return fmt.Sprintf("%s:%s*", keyPrefix, class)
	}
	return fmt.Sprintf("%s:%s:user:%s*", keyPrefix, class, scope)
}

// CollapsedPattern matches every digest-collapsed key.
func (c *KeyCodec) CollapsedPattern() string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, collapsedMarker)
}

// IsCollapsed reports whether key is in digest-collapsed form.
func (c *KeyCodec) IsCollapsed(key string) bool {
	return strings.HasPrefix(key, keyPrefix+":"+collapsedMarker+":")
}

// ClassFromKey extracts the cache class from a rendered key. Collapsed keys
// and foreign keys report ok=false.
func (c *KeyCodec) ClassFromKey(key string) (Class, bool) {
	segments := strings.SplitN(key, ":", 3)
	if len(segments) < 2 || segments[0] != keyPrefix {
		return "", false
	}
	class := Class(segments[1])
	if !class.Valid() {
		return "", false
	}
	return class, true
}

// filterDigest hashes a canonicalized filter map to a stable 8-hex digest.
// Digest collisions between different filter maps are accepted.
func filterDigest(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New32a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(filters[k]))
		h.Write([]byte{';'})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}
