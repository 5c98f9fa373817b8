package source

import (
	"context"
	"fmt"

	"github.com/bbernstein/tidecharts/internal/cache"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// StationDirectory answers station list queries through a memory cache, an
// optional shared cache and finally the source itself.
type StationDirectory struct {
	source   Source
	memCache *cache.StationCache
	s3Cache  StationListCache
	fallback []models.Station
}

// NewStationDirectory builds a directory. s3Cache may be nil. fallback is
// served when the source cannot be reached and nothing is cached.
func NewStationDirectory(src Source, memCache *cache.StationCache, s3Cache StationListCache, fallback []models.Station) *StationDirectory {
	if memCache == nil {
		memCache = cache.NewStationCache(0)
	}
	return &StationDirectory{
		source:   src,
		memCache: memCache,
		s3Cache:  s3Cache,
		fallback: fallback,
	}
}

func (d *StationDirectory) Stations(ctx context.Context) ([]models.Station, error) {
	if stations := d.memCache.GetStations(); stations != nil {
		log.Debug().Msg("Memory cache HIT for station list")
		return stations, nil
	}

	if d.s3Cache != nil {
		stations, err := d.s3Cache.GetStations(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error getting stations from S3 cache")
		} else if stations != nil {
			log.Debug().Msg("S3 cache HIT for station list")
			d.memCache.SetStations(stations)
			return stations, nil
		}
	}

	log.Debug().Msg("Cache MISS for station list, fetching from source")

	stations, err := d.source.ListStations(ctx)
	if err != nil {
		if len(d.fallback) > 0 {
			log.Error().Err(err).Msg("Station list unavailable, serving fallback stations")
			return d.fallback, nil
		}
		return nil, fmt.Errorf("listing stations: %w", err)
	}

	if d.s3Cache != nil {
		go func() {
			if err := d.s3Cache.SaveStations(context.Background(), stations); err != nil {
				log.Error().Err(err).Msg("Failed to save stations to S3 cache")
			}
		}()
	}

	d.memCache.SetStations(stations)
	return stations, nil
}

// Find returns the station with id, or ErrStationNotFound.
func (d *StationDirectory) Find(ctx context.Context, id string) (*models.Station, error) {
	stations, err := d.Stations(ctx)
	if err != nil {
		return nil, err
	}
	for _, station := range stations {
		if station.ID == id {
			return &station, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStationNotFound, id)
}
