package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ReportKey generates a cache key for a research request. Depth is part
// of the key: the same query at a different depth is a different report.
func ReportKey(query, depth string) string {
	hash := sha256.Sum256([]byte(query + "|" + depth))
	return "factlens:v1:" + hex.EncodeToString(hash[:])
}
