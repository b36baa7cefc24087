// Package cache holds the company reference list used by the schedule form.
// The list lives in process memory and, when a Redis client is configured,
// is shared between console replicas under a single key.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/transit-admin-console/internal/config"
	"github.com/iliyamo/transit-admin-console/internal/model"
)

// Loader fetches the authoritative company list from the backend.
type Loader func(ctx context.Context) ([]model.Company, error)

// CompanyCache is safe for concurrent use.  It loads lazily on first use and
// keeps the list until TTL passes or Invalidate is called.
type CompanyCache struct {
	mu       sync.Mutex
	list     []model.Company
	loaded   bool
	loadedAt time.Time

	rdb    *redis.Client
	key    string
	genKey string
	ttl    time.Duration
	now func() time.Time
}

// NewCompanyCache builds the cache.  rdb may be nil, in which case only the
// in-process copy is kept; the Redis layer is also skipped when cfg is
// disabled.
func NewCompanyCache(cfg config.CompanyCacheConfig, rdb *redis.Client) *CompanyCache {
	c := &CompanyCache{
		key:    cfg.Prefix + ":list",
		genKey: cfg.Prefix + ":gen",
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	if cfg.Enabled {
		c.rdb = rdb
	}
	return c
}

// storeIfCurrent writes the list only when the generation counter still has
// the value read before loading.  It returns 1 when the list was written.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'EX', tonumber(ARGV[3]))
return 1
`)

// Companies returns the cached list, loading it through load on a miss.
// A failed load is not cached, and neither is a load that an Invalidate
// on any replica overtook.
func (c *CompanyCache) Companies(ctx context.Context, load Loader) ([]model.Company, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && (c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl) {
		return copyList(c.list), nil
	}
	if list, ok := c.fromRedis(ctx); ok {
		c.store(list)
		return copyList(list), nil
	}

	gen, genOK := c.generation(ctx)
	list, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if c.rdb == nil || !genOK || c.toRedis(ctx, gen, list) {
		c.store(list)
	}
	return copyList(list), nil
}

// Invalidate drops the cached list here and in Redis, so the next
// Companies call reloads it.
func (c *CompanyCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.loaded = false
	if c.rdb == nil {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.genKey)
		p.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		log.Printf("company-cache: redis invalidate failed: %v", err)
	}
}

// Forget drops only the in-process copy.  Replicas call it when another
// replica announced a change and has already cleared Redis.
func (c *CompanyCache) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.loaded = false
}

func (c *CompanyCache) store(list []model.Company) {
	c.list = copyList(list)
	c.loaded = true
	c.loadedAt = c.now()
}

func (c *CompanyCache) fromRedis(ctx context.Context) ([]model.Company, bool) {
	if c.rdb == nil {
		return nil, false
	}
	bs, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("company-cache: redis get failed: %v", err)
		}
		return nil, false
	}
	var list []model.Company
	if err := json.Unmarshal(bs, &list); err != nil {
		log.Printf("company-cache: discarding malformed entry: %v", err)
		return nil, false
	}
	return list, true
}

// generation reads the shared invalidation counter.  ok is false when
// Redis is absent or unreachable.
func (c *CompanyCache) generation(ctx context.Context) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	gen, err := c.rdb.Get(ctx, c.genKey).Result()
	if err == redis.Nil {
		return "0", true
	}
	if err != nil {
		log.Printf("company-cache: redis generation read failed: %v", err)
		return "", false
	}
	return gen, true
}

// toRedis shares list unless the generation moved past gen while it was
// loading.  It reports whether the list is still current.
func (c *CompanyCache) toRedis(ctx context.Context, gen string, list []model.Company) bool {
	bs, err := json.Marshal(list)
	if err != nil {
		return true
	}
	secs := int64(c.ttl / time.Second)
	if c.ttl <= 0 {
		secs = int64((5 * time.Minute) / time.Second)
	} else if secs < 1 {
		secs = 1
	}
	written, err := storeIfCurrent.Run(ctx, c.rdb, []string{c.genKey, c.key}, gen, bs, secs).Int()
	if err != nil {
		log.Printf("company-cache: redis set failed: %v", err)
		return true
	}
	if written == 0 {
		log.Printf("company-cache: list changed while loading, not caching")
		return false
	}
	return true
}

func copyList(list []model.Company) []model.Company {
	if list == nil {
		return nil
	}
	return append([]model.Company(nil), list...)
}
