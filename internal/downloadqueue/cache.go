package downloadqueue

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
)

// These are the cache subdirectories of spec §4.3. unknownBucket
// is used whenever a Fetcher doesn't report a license class.
const (
	bucketCC0      = "cc0"
	bucketCCBy     = "cc-by"
	unknownBucket  = "unknown"
)

var knownBuckets = map[string]string{
	"cc0":   bucketCC0,
	"cc-by": bucketCCBy,
}

// Cache is the content-addressed on-disk audio cache. Files are stored one
// directory per license class plus an unknown/ bucket, keyed by the SHA-256
// of the URL. The exact derivation is not part of the public contract
// (spec §4.3) — only that Lookup and Store agree, which a content hash
// guarantees by construction.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// NewCache creates the cache directory (and its buckets) if needed.
func NewCache(dir string) (*Cache, error) {
	c := &Cache{dir: dir}
	for _, bucket := range append(bucketNames(), unknownBucket) {
		if err := os.MkdirAll(filepath.Join(dir, bucket), 0o755); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func bucketNames() []string {
	names := make([]string, 0, len(knownBuckets))
	for _, b := range knownBuckets {
		names = append(names, b)
	}
	return names
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached path for url, if any file exists across any
// bucket for url's content key.
func (c *Cache) Lookup(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := key(url)
	for _, bucket := range append(bucketNames(), unknownBucket) {
		p := filepath.Join(c.dir, bucket, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Store writes data under the bucket matching licenseClass (unknownBucket
// if unrecognized or empty) and returns the resulting path.
func (c *Cache) Store(url, licenseClass string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := knownBuckets[licenseClass]
	if !ok {
		bucket = unknownBucket
	}
	path := filepath.Join(c.dir, bucket, key(url))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}

// Clear deletes every cached file across all buckets and returns the count
// removed.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, bucket := range append(bucketNames(), unknownBucket) {
		dir := filepath.Join(c.dir, bucket)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				count++
			}
		}
	}
	return count, nil
}
