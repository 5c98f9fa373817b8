package source

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/pkg/http/client"
)

// Source is an upstream provider of tide readings. FetchDaily returns the
// raw payload for one calendar day in the station's local time; an empty
// payload is not an error.
type Source interface {
	FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error)
	FetchMonthly(ctx context.Context, stationID string, month time.Time) (*models.MonthlyPayload, error)
	ListStations(ctx context.Context) ([]models.Station, error)
}

// PayloadStore caches raw daily payloads.
type PayloadStore interface {
	GetPayload(ctx context.Context, stationID string, date time.Time) (*models.DailyPayloadRecord, error)
	SavePayload(ctx context.Context, record models.DailyPayloadRecord) error
}

// StationListCache is a shared, slower station list cache (S3 in production).
type StationListCache interface {
	GetStations(ctx context.Context) ([]models.Station, error)
	SaveStations(ctx context.Context, stations []models.Station) error
}

// New returns the client for kind.
func New(kind models.Source, httpClient client.Interface) (Source, error) {
	switch kind {
	case models.SourceNOAA:
		return NewNOAAClient(httpClient), nil
	case models.SourceIHM:
		return NewIHMClient(httpClient), nil
	}
	return nil, fmt.Errorf("unknown tide source: %s", kind)
}
