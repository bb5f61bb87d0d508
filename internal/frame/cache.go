package frame

import (
	"fmt"
	"image"
	"os"
	"sync"
)

// Cache provides thread-safe caching of decoded frames to avoid redundant
// disk reads when the same file is analyzed repeatedly (for example by the
// CLI smoke tool replaying a captured sequence).
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(); long-running processes should clean up periodically.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCache creates an empty frame cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{images: make(map[string]image.Image)}
}

// Load retrieves a frame from the cache or decodes it from disk if not
// cached. Supported formats are PNG, JPEG and GIF. The frame is cached
// under the exact path string provided.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict removes a single cached frame.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear removes all cached frames, freeing the associated memory.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
