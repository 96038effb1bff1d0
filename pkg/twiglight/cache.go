package twiglight

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"sort"
	"time"

	"github.com/conneroisu/twiglight/internal/cache"
)

// Cache stores rendered output by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// PersistentCache is a Cache holding resources that must be released.
type PersistentCache interface {
	Cache
	io.Closer
}

// NewMemoryCache returns an in-process LRU cache bounded to maxBytes of
// rendered output.
func NewMemoryCache(maxBytes int64) Cache {
	return cache.NewMemoryCache(maxBytes)
}

// NewSQLiteCache opens (creating if needed) a cache stored in the SQLite
// database at path, so cached output survives across processes.
func NewSQLiteCache(ctx context.Context, path string) (PersistentCache, error) {
	return cache.OpenSQLiteCache(ctx, path)
}

// DeriveCacheKey hashes template and values into a cache key. Equal inputs
// always produce the same key regardless of map iteration order.
func DeriveCacheKey(template string, values FlatTokenMap) string {
	h := sha256.New()
	writeField(h, template)

	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		writeField(h, path)
		writeField(h, values[path])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes s so that adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	io.WriteString(h, s)
}
