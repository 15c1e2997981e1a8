package cache

import (
	"bytes"
	"container/list"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"media-enricher/internal/derivative"
	"media-enricher/internal/logging"
	"media-enricher/internal/metrics"
)

// jpegQuality is the encode quality for cached derivatives.
const jpegQuality = 80

// DefaultMemoryEntries bounds the memory tier. At preview size a cached
// JPEG runs well under 512KB, so the default stays below ~128MB.
const DefaultMemoryEntries = 256

// Cache is the two-tier derivative store. The memory tier is a bounded LRU
// of encoded JPEG bytes; the disk tier is one file per derivative and is
// only ever trimmed by invalidation. A disk hit repopulates the memory
// tier. Losing either tier costs regeneration, never correctness.
type Cache struct {
	root       string
	maxEntries int

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
}

type memEntry struct {
	key  string
	data []byte
}

// New creates a Cache rooted at dir. Zero maxMemoryEntries falls back to
// the default.
func New(dir string, maxMemoryEntries int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if maxMemoryEntries <= 0 {
		maxMemoryEntries = DefaultMemoryEntries
	}
	logging.Debug("Derivative cache: dir %s, memory tier %d entries", dir, maxMemoryEntries)
	return &Cache{
		root:       dir,
		maxEntries: maxMemoryEntries,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
	}, nil
}

func cacheKey(id string, kind derivative.Kind) string {
	return id + "_" + string(kind) + ".jpg"
}

func (c *Cache) diskPath(key string) string {
	return filepath.Join(c.root, key)
}

// Lookup returns the encoded derivative, checking memory then disk.
func (c *Cache) Lookup(id string, kind derivative.Kind) ([]byte, bool) {
	key := cacheKey(id, kind)

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		data := elem.Value.(*memEntry).data
		c.mu.Unlock()
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return data, true
	}
	c.mu.Unlock()

	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("disk").Inc()
	c.remember(key, data)
	return data, true
}

// Store encodes the derivative and writes it to both tiers. The disk write
// happens first; a failed disk write still leaves the memory tier usable.
func (c *Cache) Store(id string, kind derivative.Kind, img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode derivative: %w", err)
	}
	return c.StoreEncoded(id, kind, buf.Bytes())
}

// StoreEncoded writes already-encoded JPEG bytes to both tiers.
func (c *Cache) StoreEncoded(id string, kind derivative.Kind, data []byte) error {
	key := cacheKey(id, kind)

	if err := os.WriteFile(c.diskPath(key), data, 0644); err != nil {
		logging.Warn("Failed to write derivative %s to disk: %v", key, err)
	}
	c.remember(key, data)
	metrics.CacheStores.Inc()
	return nil
}

func (c *Cache) remember(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*memEntry).data = data
		c.lru.MoveToFront(elem)
		return
	}
	c.entries[key] = c.lru.PushFront(&memEntry{key: key, data: data})

	for c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*memEntry).key)
		metrics.CacheEvictions.Inc()
	}
}

// Invalidate removes every derivative for an item from both tiers.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	for _, kind := range derivative.Kinds {
		key := cacheKey(id, kind)
		if elem, ok := c.entries[key]; ok {
			c.lru.Remove(elem)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, kind := range derivative.Kinds {
		if err := os.Remove(c.diskPath(cacheKey(id, kind))); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove cached derivative for %s: %v", id, err)
		}
	}
	metrics.CacheInvalidations.Inc()
}

// InvalidateAll empties both tiers.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
	c.mu.Unlock()

	entries, err := os.ReadDir(c.root)
	if err != nil {
		logging.Warn("Failed to list cache dir: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		if err := os.Remove(filepath.Join(c.root, e.Name())); err != nil {
			logging.Warn("Failed to remove %s: %v", e.Name(), err)
		}
	}
	metrics.CacheInvalidations.Inc()
	logging.Info("Derivative cache cleared")
}

// PurgeMemory drops the memory tier. Hooked up to the memory pressure
// monitor; disk entries survive.
func (c *Cache) PurgeMemory() {
	c.mu.Lock()
	n := c.lru.Len()
	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
	c.mu.Unlock()
	if n > 0 {
		logging.Info("Purged %d derivatives from memory tier", n)
	}
}

// DiskStats reports the disk tier's total size and file count.
func (c *Cache) DiskStats() (int64, int) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return 0, 0
	}
	var size int64
	var count int
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		if info, err := e.Info(); err == nil {
			size += info.Size()
			count++
		}
	}
	return size, count
}
