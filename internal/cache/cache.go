package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache. GetJSON reports a miss instead of an error
// for absent or corrupt entries.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
