package data

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
)

type localCache struct {
	cache *ristretto.Cache[string, []byte]
}

// NewLocalCache builds the in-process metadata cache
func NewLocalCache(maxEntries, maxCost int64) (biz.LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &localCache{cache: cache}, nil
}

func (c *localCache) Get(key string) ([]byte, bool) {
	return c.cache.Get(key)
}

func (c *localCache) Set(key string, value []byte) bool {
	return c.cache.Set(key, value, int64(len(value)))
}

func (c *localCache) Del(key string) {
	c.cache.Del(key)
}

func (c *localCache) Metrics() (hits, misses uint64) {
	m := c.cache.Metrics
	return m.Hits(), m.Misses()
}
