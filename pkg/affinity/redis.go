package affinity

import (
	"context"
	"errors"

	"crappybird/pkg/cache"
)

// RedisBackend stores the score under a prefixed key with a one year TTL
// that is refreshed on every write.
type RedisBackend struct {
	cache *cache.Cache
	key   string
}

func NewRedisBackend(c *cache.Cache) *RedisBackend {
	return &RedisBackend{cache: c, key: c.Key("state", Key)}
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Load(ctx context.Context) (string, error) {
	val, err := r.cache.Get(ctx, r.key)
	if errors.Is(err, cache.ErrMiss) {
		return "", ErrNotFound
	}
	return val, err
}

func (r *RedisBackend) Save(ctx context.Context, value string) error {
	return r.cache.Set(ctx, r.key, value, cache.IntimacyTTL)
}
