package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists reports as files so results survive restarts
type DiskCache struct {
	dir        string
	defaultTTL time.Duration
}

type diskRecord struct {
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, defaultTTL time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &DiskCache{dir: dir, defaultTTL: defaultTTL}, nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".cache")
}

// Get retrieves a value, evicting it if the record has expired
func (c *DiskCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var rec diskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		os.Remove(c.path(key))
		return nil, false
	}

	if time.Now().After(rec.ExpiresAt) {
		os.Remove(c.path(key))
		return nil, false
	}

	return rec.Payload, true
}

// Set stores a value. A zero ttl uses the cache default.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	rec := diskRecord{
		Payload:   value,
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}

	return os.WriteFile(c.path(key), data, 0644)
}

// Delete removes a value
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every record under the cache dir
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".cache" {
			os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}
