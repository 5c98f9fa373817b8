package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type StationsResponse struct {
	APIResponse
	Stations []models.Station `json:"stations"`
}

type StatusResponse struct {
	APIResponse
	Status models.StationStatus `json:"status"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewStationsResponse(stations []models.Station) *StationsResponse {
	if stations == nil {
		stations = []models.Station{}
	}
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Stations:    stations,
	}
}

func NewStatusResponse(status models.StationStatus) *StatusResponse {
	return &StatusResponse{
		APIResponse: APIResponse{ResponseType: "status"},
		Status:      status,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

var jsonHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

// Success builds an API Gateway response with a JSON body
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    jsonHeaders,
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    jsonHeaders,
		Body:       string(body),
	}, nil
}

// WriteJSON is the net/http counterpart of Success.
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	for k, v := range jsonHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Error writing response body")
	}
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, NewErrorResponse(message))
}

// InvalidSlotError reports an artifact path that names no valid slot.
type InvalidSlotError struct {
	Reason string
}

func (e InvalidSlotError) Error() string {
	return "Invalid artifact: " + e.Reason
}

// ParseSlot validates the path parameters of an artifact request.
func ParseSlot(stationID, kind, theme, days string) (models.Slot, error) {
	if strings.TrimSpace(stationID) == "" {
		return models.Slot{}, InvalidSlotError{Reason: "missing station"}
	}
	k, err := models.ParseArtifactKind(kind)
	if err != nil {
		return models.Slot{}, InvalidSlotError{Reason: err.Error()}
	}
	th, err := models.ParseTheme(theme)
	if err != nil {
		return models.Slot{}, InvalidSlotError{Reason: err.Error()}
	}
	d, err := strconv.Atoi(days)
	if err != nil || !models.ValidDayRange(d) {
		return models.Slot{}, InvalidSlotError{Reason: "day range must be 1-7"}
	}
	return models.Slot{StationID: stationID, DayRange: d, Theme: th, Kind: k}, nil
}
