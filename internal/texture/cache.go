package texture

import "sync"

type cacheKey struct {
	path  string
	space ColorSpace
}

// Cache keeps decoded source images so a texture referenced by several
// materials is decoded once. Entries are shared; callers must Clone before
// mutating.
type Cache struct {
	data map[cacheKey]*Image
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[cacheKey]*Image),
	}
}

// Get retrieves a decoded image.
func (c *Cache) Get(path string, space ColorSpace) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[cacheKey{path, space}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores a decoded image.
func (c *Cache) Set(path string, space ColorSpace, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cacheKey{path, space}] = img
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
