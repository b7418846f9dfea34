package cache

import (
	"context"
	"time"
)

// Cacher is the persistent response cache used by the HTTP client.
// GetCache reports when the entry was stored so callers can apply their own TTL.
type Cacher interface {
	GetCache(ctx context.Context, key string) (val []byte, storedAt time.Time, found bool)
	SetCache(ctx context.Context, key string, val []byte) error
}
