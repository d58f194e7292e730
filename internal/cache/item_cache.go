// Package cache holds the session-local mirrors of remote state: an
// item cache and an asset cache, each backed by a durable timestamped
// snapshot with TTL invalidation. Caches are never authoritative.
package cache

import (
	"log"
	"sync"
	"time"

	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/repository"
)

// ItemCache mirrors the last fetched item set in memory and persists
// it as a timestamped snapshot. A snapshot older than the TTL, or one
// with no items, counts as a miss: an empty remote listing must never
// hide real content behind a stale empty cache.
type ItemCache struct {
	store repository.SnapshotStore
	key   string
	ttl   time.Duration

	mu       sync.Mutex
	items    map[string]domain.Item
	order    []string
	lastSync time.Time
}

func NewItemCache(store repository.SnapshotStore, key string, ttl time.Duration) *ItemCache {
	return &ItemCache{
		store: store,
		key:   key,
		ttl:   ttl,
		items: make(map[string]domain.Item),
	}
}

// Load restores the in-memory map from the durable snapshot. It
// reports ok=false when no snapshot exists, the snapshot is older
// than the TTL, or the stored item list is empty.
func (c *ItemCache) Load() ([]domain.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snapshot domain.ItemSnapshot
	found, err := c.store.Get(c.key, &snapshot)
	if err != nil {
		log.Printf("item cache %s: failed to load snapshot: %v", c.key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	if time.Since(snapshot.Timestamp) > c.ttl {
		return nil, false
	}
	if len(snapshot.Items) == 0 {
		return nil, false
	}

	c.items = make(map[string]domain.Item, len(snapshot.Items))
	c.order = c.order[:0]
	for _, item := range snapshot.Items {
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
	}
	c.lastSync = snapshot.Timestamp

	return snapshot.Items, true
}

// Save replaces the cached set wholesale and persists it. A persist
// failure is logged, not returned: the in-memory state stays valid for
// the rest of the session.
func (c *ItemCache) Save(items []domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]domain.Item, len(items))
	c.order = c.order[:0]
	for _, item := range items {
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
	}
	c.lastSync = time.Now()

	c.persist(c.lastSync)
}

func (c *ItemCache) Get(id string) (domain.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	return item, ok
}

// Set upserts a single item and re-persists the full set.
func (c *ItemCache) Set(item domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[item.ID]; !exists {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item

	c.persist(time.Now())
}

// Update merges the present fields of req into the cached item,
// stamps UpdatedAt, and re-persists. An unknown id reports ok=false
// with no side effects.
func (c *ItemCache) Update(id string, req *domain.UpdateItemRequest) (domain.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return domain.Item{}, false
	}

	if req.Content != nil {
		item.Content = *req.Content
	}
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if req.ContentType != nil {
		item.ContentType = *req.ContentType
	}
	if req.Tags != nil {
		item.Tags = *req.Tags
	}
	item.UpdatedAt = domain.FormatTimestamp(time.Now())

	c.items[id] = item
	c.persist(time.Now())

	return item, true
}

// Delete removes an item and reports whether it existed. The snapshot
// is re-persisted only when something was removed.
func (c *ItemCache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false
	}

	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.persist(time.Now())
	return true
}

// GetAll returns the cached items in insertion order, which is not
// guaranteed to be chronological.
func (c *ItemCache) GetAll() []domain.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]domain.Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.items[id])
	}
	return items
}

// Clear empties the cache and removes the durable snapshot.
func (c *ItemCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]domain.Item)
	c.order = nil
	c.lastSync = time.Time{}

	if err := c.store.Delete(c.key); err != nil {
		log.Printf("item cache %s: failed to remove snapshot: %v", c.key, err)
	}
}

func (c *ItemCache) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return time.Since(c.lastSync) > c.ttl
}

// persist writes the current set as a snapshot stamped at. Callers
// must hold c.mu.
func (c *ItemCache) persist(at time.Time) {
	snapshot := domain.ItemSnapshot{
		Items:     make([]domain.Item, 0, len(c.order)),
		Timestamp: at,
	}
	for _, id := range c.order {
		snapshot.Items = append(snapshot.Items, c.items[id])
	}

	if err := c.store.Put(c.key, snapshot); err != nil {
		log.Printf("item cache %s: failed to persist snapshot: %v", c.key, err)
	}
}
