package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/macrostorm/internal/logging"
)

// Current schema version - increment when CacheEntry format changes.
const cacheSchemaVersion uint16 = 1

// CacheEntry is one cached response body.
type CacheEntry struct {
	Schema    uint16
	URL       string
	Body      string
	FetchedAt time.Time
}

// DiskCache stores fetched bodies on disk, one msgpack file per URL.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultCacheDir returns $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache creates the cache directory if needed and returns the cache.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, "fetch", hex.EncodeToString(sum[:])+".mp")
}

// Put writes an entry, replacing any previous entry for the same URL.
func (c *DiskCache) Put(entry *CacheEntry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(entry.URL)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	entry.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(entry); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads the entry for url. The bool is false when there is no usable entry.
func (c *DiskCache) Get(url string) (*CacheEntry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(url))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry CacheEntry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, err
	}
	if entry.Schema != cacheSchemaVersion || entry.URL != url {
		return nil, false, nil
	}
	return &entry, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "fetch"))
}

// CachedFetcher serves fresh entries from a DiskCache and otherwise delegates
// to the next Fetcher. Concurrent requests for one URL share a single fetch.
type CachedFetcher struct {
	next   Fetcher
	cache  *DiskCache
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
	logger *logging.Logger
}

// NewCachedFetcher wraps next with cache. A ttl <= 0 means entries never expire.
func NewCachedFetcher(next Fetcher, cache *DiskCache, ttl time.Duration, logger *logging.Logger) *CachedFetcher {
	if logger == nil {
		logger = logging.Null()
	}
	return &CachedFetcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent("fetch-cache"),
	}
}

// Get implements Fetcher.
func (f *CachedFetcher) Get(ctx context.Context, url string) (string, error) {
	entry, ok, err := f.cache.Get(url)
	if err != nil {
		f.logger.Warn("read %s: %v", url, err)
	}
	if ok && (f.ttl <= 0 || f.now().Sub(entry.FetchedAt) < f.ttl) {
		f.logger.Debug("hit %s", url)
		return entry.Body, nil
	}

	v, err, shared := f.group.Do(url, func() (any, error) {
		f.logger.Debug("miss %s", url)
		if f.next == nil {
			return "", ErrNoFetcher
		}
		body, err := f.next.Get(ctx, url)
		if err != nil {
			return "", err
		}
		if err := f.cache.Put(&CacheEntry{URL: url, Body: body, FetchedAt: f.now()}); err != nil {
			f.logger.Warn("write %s: %v", url, err)
		}
		return body, nil
	})
	if shared {
		f.logger.Debug("shared fetch %s", url)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
