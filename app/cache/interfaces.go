package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// DefaultTTL matches the lifetime of cached lookup responses.
const DefaultTTL = 6 * time.Hour

// Cache maps request fingerprints to previously computed responses.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}

// Fingerprint builds a deterministic key from request parameters.
func Fingerprint(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("req:%x", hash[:16])
}
