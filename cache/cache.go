package cache

import (
	"time"

	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/model"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// linkCost is the approximate memory cost charged per cached link.
const linkCost = 1024

// Cache is an in-process hot cache for link records sitting in front of the
// attribution store on the redirect path. Entries expire after the
// configured TTL so updates and deletions converge without invalidation
// fanout.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a new cache instance with the given configuration.
func New(cfg config.CacheConfig) (*Cache, error) {
	// Convert MB to bytes
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize), // Keys tracked for admission frequency
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Int("counter_size", cfg.CounterSize).
		Msg("Link cache initialized")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// GetLink retrieves a cached link by short code.
func (c *Cache) GetLink(code string) (model.Link, bool) {
	if c == nil || c.client == nil {
		return model.Link{}, false
	}
	value, found := c.client.Get(code)
	if !found {
		return model.Link{}, false
	}
	link, ok := value.(model.Link)
	return link, ok
}

// SetLink stores a link under its short code with the configured TTL.
func (c *Cache) SetLink(code string, link model.Link) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.SetWithTTL(code, link, linkCost, c.ttl)
}

// Delete removes a short code from the cache.
func (c *Cache) Delete(code string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(code)
}

// Close cleanly shuts down the cache.
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Link cache closed")
	}
}

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics.
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c == nil || c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()
	total := hits + misses

	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.ttl.Seconds()),
	}
}
