package cache

import (
	"log"
	"sync"
	"time"

	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/repository"
)

// AssetCache resolves asset identifiers to their displayable
// representation (base64 content). The persisted snapshot is loaded
// lazily once per process lifetime; if it is older than the TTL the
// whole snapshot is discarded and the cache starts empty.
type AssetCache struct {
	store repository.SnapshotStore
	key   string
	ttl   time.Duration

	mu     sync.Mutex
	loaded bool
	urls   map[string]string
}

func NewAssetCache(store repository.SnapshotStore, key string, ttl time.Duration) *AssetCache {
	return &AssetCache{
		store: store,
		key:   key,
		ttl:   ttl,
		urls:  make(map[string]string),
	}
}

func (c *AssetCache) Get(assetID string) (string, bool) {
	if assetID == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	url, ok := c.urls[assetID]
	return url, ok
}

func (c *AssetCache) Set(assetID, url string) {
	if assetID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
	c.urls[assetID] = url

	snapshot := domain.AssetSnapshot{
		URLs:      make(map[string]string, len(c.urls)),
		Timestamp: time.Now(),
	}
	for id, u := range c.urls {
		snapshot.URLs[id] = u
	}

	if err := c.store.Put(c.key, snapshot); err != nil {
		log.Printf("asset cache %s: failed to persist snapshot: %v", c.key, err)
	}
}

// loadLocked restores the persisted snapshot on first access. Callers
// must hold c.mu.
func (c *AssetCache) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true

	var snapshot domain.AssetSnapshot
	found, err := c.store.Get(c.key, &snapshot)
	if err != nil {
		log.Printf("asset cache %s: failed to load snapshot: %v", c.key, err)
		return
	}
	if !found {
		return
	}

	if time.Since(snapshot.Timestamp) > c.ttl {
		if err := c.store.Delete(c.key); err != nil {
			log.Printf("asset cache %s: failed to discard expired snapshot: %v", c.key, err)
		}
		return
	}

	for id, url := range snapshot.URLs {
		c.urls[id] = url
	}
}
