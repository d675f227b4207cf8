package cache

import (
	"time"
)

// LayeredCache checks memory first and falls back to disk, promoting
// disk hits back into memory. If the disk layer cannot be created the
// cache degrades to memory only.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a two-tier cache with disk storage under diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	lc := &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
	}
	if disk, err := NewDiskCache(diskDir, diskTTL); err == nil {
		lc.disk = disk
	}
	return lc
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if c.disk == nil {
		return nil, false
	}

	val, found := c.disk.Get(key)
	if !found {
		return nil, false
	}

	c.memory.Set(key, val, 0)
	return val, true
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Set(key, value, ttl)
	}
	return nil
}

func (c *LayeredCache) Delete(key string) error {
	if err := c.memory.Delete(key); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Delete(key)
	}
	return nil
}

func (c *LayeredCache) Clear() error {
	if err := c.memory.Clear(); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}
