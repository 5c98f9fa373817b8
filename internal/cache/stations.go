package cache

import (
	"sync"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
)

const defaultStationCacheTTL = 24 * time.Hour

type StationCache struct {
	stations    []models.Station
	lastUpdated time.Time
	ttl         time.Duration
	clock       clock
	mu          sync.RWMutex
}

func NewStationCache(ttl time.Duration) *StationCache {
	if ttl <= 0 {
		ttl = defaultStationCacheTTL
	}
	return &StationCache{
		stations:    make([]models.Station, 0),
		lastUpdated: time.Time{}, // Zero time to ensure first fetch
		ttl:         ttl,
		clock:       &systemClock{},
	}
}

func (c *StationCache) GetStations() []models.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isExpired() {
		return nil
	}
	return c.stations
}

func (c *StationCache) SetStations(stations []models.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stations = stations
	c.lastUpdated = c.clock.Now()
}

func (c *StationCache) isExpired() bool {
	return c.lastUpdated.IsZero() || c.clock.Now().Sub(c.lastUpdated) > c.ttl
}
