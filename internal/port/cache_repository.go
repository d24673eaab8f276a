package port

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound reports an absent key on Get.
var ErrKeyNotFound = errors.New("key not found")

// CacheRepository is the TTL-capable key/value store the engine keeps carts
// and reservations in. The store is optional infrastructure: implementations
// bound every call with a short timeout and return errors instead of
// blocking, so callers can degrade to "feature unavailable".
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	AddToSet(ctx context.Context, setKey, member string) error
	RemoveFromSet(ctx context.Context, setKey, member string) error
	SetMembers(ctx context.Context, setKey string) ([]string, error)

	// Keys lists keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
