package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bbernstein/tidecharts/internal/config"
	"github.com/bbernstein/tidecharts/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// clock interface allows us to mock time in tests
type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

// PayloadBackend is a slower, shared tier behind the in-process LRU.
type PayloadBackend interface {
	GetPayload(ctx context.Context, stationID string, date time.Time) (*models.DailyPayloadRecord, error)
	SavePayload(ctx context.Context, record models.DailyPayloadRecord) error
}

// LRUCacheEntry wraps the cached data with metadata
type LRUCacheEntry struct {
	Data      *models.DailyPayloadRecord
	ExpiresAt time.Time
}

// PayloadCache provides a two-layer cache of raw daily payloads: an LRU in
// front of an optional backend (DynamoDB in production).
type PayloadCache struct {
	lru     *lru.Cache[string, *LRUCacheEntry]
	backend PayloadBackend
	ttl     time.Duration
	clock   clock

	lruHits       atomic.Uint64
	lruMisses     atomic.Uint64
	backendHits   atomic.Uint64
	backendMisses atomic.Uint64
}

// NewPayloadCache creates the LRU tier. backend may be nil.
func NewPayloadCache(cfg *config.CacheConfig, backend PayloadBackend) (*PayloadCache, error) {
	if cfg == nil {
		cfg = config.GetCacheConfig()
	}

	lruCache, err := lru.New[string, *LRUCacheEntry](cfg.PayloadLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &PayloadCache{
		lru:     lruCache,
		backend: backend,
		ttl:     cfg.GetPayloadLRUTTL(),
		clock:   &systemClock{},
	}, nil
}

// getCacheKey generates a unique cache key for a station and date
func getCacheKey(stationID string, date time.Time) string {
	return fmt.Sprintf("%s:%s", stationID, date.Format("2006-01-02"))
}

// GetPayload tries the LRU first, then the backend. A miss in both returns
// nil without error.
func (c *PayloadCache) GetPayload(ctx context.Context, stationID string, date time.Time) (*models.DailyPayloadRecord, error) {
	key := getCacheKey(stationID, date)
	if entry, ok := c.lru.Get(key); ok {
		if c.clock.Now().Before(entry.ExpiresAt) {
			c.lruHits.Add(1)
			return entry.Data, nil
		}
		// Entry expired, remove it
		c.lru.Remove(key)
	}
	c.lruMisses.Add(1)

	if c.backend == nil {
		return nil, nil
	}

	record, err := c.backend.GetPayload(ctx, stationID, date)
	if err != nil {
		return nil, fmt.Errorf("getting payload from backend: %w", err)
	}
	if record == nil {
		c.backendMisses.Add(1)
		return nil, nil
	}

	c.backendHits.Add(1)
	c.lru.Add(key, &LRUCacheEntry{
		Data:      record,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
	return record, nil
}

// SavePayload writes through to both tiers.
func (c *PayloadCache) SavePayload(ctx context.Context, record models.DailyPayloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid payload record: %w", err)
	}

	date, err := time.Parse("2006-01-02", record.Date)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}

	c.lru.Add(getCacheKey(record.StationID, date), &LRUCacheEntry{
		Data:      &record,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})

	if c.backend != nil {
		if err := c.backend.SavePayload(ctx, record); err != nil {
			return fmt.Errorf("saving payload to backend: %w", err)
		}
	}

	return nil
}

// GetCacheStats returns statistics about cache hits and misses
func (c *PayloadCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":       c.lruHits.Load(),
		"lru_misses":     c.lruMisses.Load(),
		"backend_hits":   c.backendHits.Load(),
		"backend_misses": c.backendMisses.Load(),
	}
}

// Clear removes all entries from the LRU cache
func (c *PayloadCache) Clear() {
	c.lru.Purge()
}
