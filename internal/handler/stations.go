package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tidecharts/internal/api"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/source"
	"github.com/rs/zerolog/log"
)

// StationFinder looks up stations offered by the configured source.
type StationFinder interface {
	Stations(ctx context.Context) ([]models.Station, error)
	Find(ctx context.Context, id string) (*models.Station, error)
}

type StationsHandler struct {
	stationFinder StationFinder
}

func NewStationsHandler(finder StationFinder) *StationsHandler {
	return &StationsHandler{
		stationFinder: finder,
	}
}

// HandleRequest serves the station list behind API Gateway. stationId picks
// one station; region filters the list.
func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	if stationID, ok := params["stationId"]; ok {
		station, err := h.stationFinder.Find(ctx, stationID)
		if errors.Is(err, source.ErrStationNotFound) {
			return api.Error("Station not found", http.StatusNotFound)
		}
		if err != nil {
			log.Error().Err(err).Str("station_id", stationID).Msg("Error finding station")
			return api.Error("Error finding station", http.StatusBadGateway)
		}
		return api.Success(api.NewStationsResponse([]models.Station{*station}))
	}

	stations, err := h.stationFinder.Stations(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing stations")
		return api.Error("Error listing stations", http.StatusBadGateway)
	}

	return api.Success(api.NewStationsResponse(filterRegion(stations, params["region"])))
}

func filterRegion(stations []models.Station, region string) []models.Station {
	if region == "" {
		return stations
	}
	var filtered []models.Station
	for _, s := range stations {
		if strings.EqualFold(s.Region, region) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
