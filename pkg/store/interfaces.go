package store

import (
	"context"

	"wikiroam/pkg/cache"
)

// StateStore is the small persistent key-value store behind bookmarks.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// CacheStore handles the persistent HTTP response cache.
type CacheStore interface {
	cache.Cacher
	HasCache(ctx context.Context, key string) (bool, error)
	ListCacheKeys(ctx context.Context, prefix string) ([]string, error)
}

// Store composes everything the client persists.
type Store interface {
	StateStore
	CacheStore

	// Close closes the store connection.
	Close() error
}
