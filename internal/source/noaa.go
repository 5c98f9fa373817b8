package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	noaaDataGetterPath = "/api/prod/datagetter" +
		"?station=%s&begin_date=%s&end_date=%s&product=predictions&datum=MLLW" +
		"&units=metric&time_zone=lst_ldt&format=json&interval=%s"
	noaaStationsPath = "/mdapi/prod/webapi/stations.json?type=tidepredictions"
	noaaDateLayout   = "20060102"
)

// noaaStates are the coastal states whose stations are offered.
var noaaStates = map[string]bool{
	"MA": true, "ME": true, "NH": true, "RI": true, "CT": true, "NY": true,
	"NJ": true, "DE": true, "MD": true, "VA": true, "NC": true, "SC": true,
	"GA": true, "FL": true, "AL": true, "MS": true, "LA": true, "TX": true,
	"CA": true, "OR": true, "WA": true, "AK": true, "HI": true,
}

// noaaResponse is the datagetter body. Upstream reports "no data" as a 200
// with an error object instead of predictions.
type noaaResponse struct {
	Predictions []models.NoaaPrediction `json:"predictions"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NOAAClient reads predictions from the NOAA CO-OPS API.
type NOAAClient struct {
	httpClient client.Interface
}

var _ Source = (*NOAAClient)(nil)

func NewNOAAClient(httpClient client.Interface) *NOAAClient {
	return &NOAAClient{httpClient: httpClient}
}

// FetchDaily issues two requests: the 6-minute curve and the high/low set.
func (c *NOAAClient) FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error) {
	day := date.Format(noaaDateLayout)

	predictions, err := c.fetchPredictions(ctx, stationID, day, day, "6")
	if err != nil {
		return nil, newSourceError("fetching predictions", stationID, err)
	}

	highLow, err := c.fetchPredictions(ctx, stationID, day, day, "hilo")
	if err != nil {
		return nil, newSourceError("fetching high/low", stationID, err)
	}

	log.Debug().
		Str("station_id", stationID).
		Str("date", day).
		Int("predictions", len(predictions)).
		Int("high_low", len(highLow)).
		Msg("Fetched NOAA daily predictions")

	return &models.NOAADayPayload{
		Predictions: predictions,
		HighLow:     highLow,
	}, nil
}

// FetchMonthly returns every high and low of the calendar month.
func (c *NOAAClient) FetchMonthly(ctx context.Context, stationID string, month time.Time) (*models.MonthlyPayload, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)

	highLow, err := c.fetchPredictions(ctx, stationID, first.Format(noaaDateLayout), last.Format(noaaDateLayout), "hilo")
	if err != nil {
		return nil, newSourceError("fetching monthly high/low", stationID, err)
	}

	events := make([]models.MonthlyEvent, 0, len(highLow))
	for _, p := range highLow {
		events = append(events, models.MonthlyEvent{
			DateTime: p.Time,
			Height:   p.Height,
			Type:     p.Type,
		})
	}

	return &models.MonthlyPayload{Month: first, Events: events}, nil
}

func (c *NOAAClient) fetchPredictions(ctx context.Context, stationID, begin, end, interval string) ([]models.NoaaPrediction, error) {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf(noaaDataGetterPath,
		url.QueryEscape(stationID), begin, end, interval))
	if err != nil {
		return nil, err
	}

	var noaaResp noaaResponse
	if err := json.Unmarshal(resp.Body, &noaaResp); err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Malformed NOAA response, treating as empty")
		return nil, nil
	}
	if noaaResp.Error != nil {
		log.Debug().
			Str("station_id", stationID).
			Str("message", noaaResp.Error.Message).
			Msg("NOAA returned no predictions")
		return nil, nil
	}

	return noaaResp.Predictions, nil
}

// ListStations returns the tide prediction stations of the coastal states.
func (c *NOAAClient) ListStations(ctx context.Context) ([]models.Station, error) {
	resp, err := c.httpClient.Get(ctx, noaaStationsPath)
	if err != nil {
		return nil, newSourceError("fetching stations", "", err)
	}

	var noaaResp struct {
		Stations []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"stations"`
	}
	if err := json.Unmarshal(resp.Body, &noaaResp); err != nil {
		return nil, newSourceError("decoding stations", "", err)
	}

	stations := make([]models.Station, 0, len(noaaResp.Stations))
	for _, s := range noaaResp.Stations {
		if !noaaStates[s.State] {
			continue
		}
		stations = append(stations, models.Station{
			ID:     s.ID,
			Name:   s.Name,
			Region: s.State,
			Source: models.SourceNOAA,
		})
	}

	return stations, nil
}
