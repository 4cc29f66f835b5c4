package catalog

import "sync"

// GarmentLister yields the full wardrobe. Implemented by storage.Store.
type GarmentLister interface {
	ListGarments() ([]Garment, error)
}

// Cache lazily builds a Snapshot from a lister and serves it until
// invalidated. Writers call Invalidate after changing the wardrobe.
type Cache struct {
	lister GarmentLister

	mu   sync.Mutex
	snap *Snapshot
}

// NewCache creates a Cache over the lister.
func NewCache(l GarmentLister) *Cache {
	return &Cache{lister: l}
}

// Snapshot returns the cached snapshot, building it on first use.
func (c *Cache) Snapshot() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		return c.snap, nil
	}
	garments, err := c.lister.ListGarments()
	if err != nil {
		return nil, err
	}
	c.snap = NewSnapshot(garments)
	return c.snap, nil
}

// Invalidate drops the cached snapshot. The next Snapshot call rebuilds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
