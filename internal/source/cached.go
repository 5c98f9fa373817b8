package source

import (
	"context"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// CachedSource serves daily payloads from a PayloadStore before asking the
// wrapped source. Monthly payloads and station lists pass straight through.
type CachedSource struct {
	Source
	store PayloadStore
}

func NewCachedSource(src Source, store PayloadStore) *CachedSource {
	return &CachedSource{Source: src, store: store}
}

func (c *CachedSource) FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error) {
	record, err := c.store.GetPayload(ctx, stationID, date)
	if err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Payload cache lookup failed")
	} else if record != nil {
		payload, err := record.Payload()
		if err == nil {
			log.Debug().Str("station_id", stationID).Str("date", record.Date).Msg("Payload cache HIT")
			return payload, nil
		}
		log.Warn().Err(err).Str("station_id", stationID).Msg("Discarding undecodable cached payload")
	}

	payload, err := c.Source.FetchDaily(ctx, stationID, date)
	if err != nil {
		return nil, err
	}

	// Empty days are not cached so a later cycle can pick up late data.
	if payload == nil || payload.Len() == 0 {
		return payload, nil
	}

	newRecord, err := models.NewDailyPayloadRecord(stationID, date, payload)
	if err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Could not encode payload for cache")
		return payload, nil
	}
	if err := c.store.SavePayload(ctx, *newRecord); err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Failed to save payload to cache")
	}

	return payload, nil
}
