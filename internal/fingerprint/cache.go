package fingerprint

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	size    int64
	modTime time.Time
	digest  string
}

// Cache memoizes digests keyed by path, invalidated whenever the file's size
// or modification time changes. It only ever skips re-hashing a file whose
// stat signature is unchanged; it never substitutes for comparing source
// against backup content. Caveat: a rewrite that preserves both size and
// mtime is indistinguishable from no change and returns the stale digest, so
// equality-critical callers that cannot tolerate that window must hash
// without a cache.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating digest cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// File returns the digest for path, reusing a cached digest when the file's
// size and mtime are unchanged since it was computed.
func (c *Cache) File(path string) (string, error) {
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() {
		if entry, ok := c.entries.Get(path); ok {
			if entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
				return entry.digest, nil
			}
		}
	}

	digest, err := File(path)
	if err != nil {
		return "", err
	}

	if info != nil {
		c.entries.Add(path, cacheEntry{
			size:    info.Size(),
			modTime: info.ModTime(),
			digest:  digest,
		})
	}

	return digest, nil
}
