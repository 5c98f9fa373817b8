package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bbernstein/tidecharts/internal/api"
	"github.com/bbernstein/tidecharts/internal/metrics"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ArtifactReader exposes the latest published artifacts.
type ArtifactReader interface {
	Get(slot models.Slot) (models.RenderedArtifact, bool)
	IsFresh(slot models.Slot) bool
}

type StatusProvider interface {
	Status(stationID string) (models.StationStatus, bool)
}

type Router struct {
	stations  StationFinder
	artifacts ArtifactReader
	statuses  StatusProvider
}

// NewRouter wires the HTTP routes. Request latency is recorded per route.
func NewRouter(stations StationFinder, artifacts ArtifactReader, statuses StatusProvider) http.Handler {
	h := &Router{
		stations:  stations,
		artifacts: artifacts,
		statuses:  statuses,
	}

	r := mux.NewRouter()
	r.Use(metrics.LatencyHandler)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/stations", h.listStations).Methods(http.MethodGet)
	r.HandleFunc("/stations/{id}/status", h.stationStatus).Methods(http.MethodGet)
	r.HandleFunc("/stations/{id}/{kind}/{theme}/{days:[0-9]+}.svg", h.artifact).Methods(http.MethodGet, http.MethodHead)
	return r
}

func (h *Router) health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Router) listStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.Stations(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error listing stations")
		api.WriteError(w, "Error listing stations", http.StatusBadGateway)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewStationsResponse(filterRegion(stations, r.URL.Query().Get("region"))))
}

func (h *Router) stationStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, ok := h.statuses.Status(id)
	if !ok {
		api.WriteError(w, "Station not configured", http.StatusNotFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewStatusResponse(status))
}

func (h *Router) artifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	slot, err := api.ParseSlot(vars["id"], vars["kind"], vars["theme"], vars["days"])
	if err != nil {
		var slotErr api.InvalidSlotError
		if errors.As(err, &slotErr) {
			api.WriteError(w, slotErr.Error(), http.StatusBadRequest)
			return
		}
		api.WriteError(w, "Invalid parameters", http.StatusBadRequest)
		return
	}

	artifact, ok := h.artifacts.Get(slot)
	if !ok {
		api.WriteError(w, "Artifact not rendered yet", http.StatusNotFound)
		return
	}

	generated := artifact.GeneratedAt.UTC()
	w.Header().Set("Last-Modified", generated.Format(http.TimeFormat))
	w.Header().Set("X-Generated-At", generated.Format(time.RFC3339Nano))
	w.Header().Set("X-Artifact-Fresh", strconv.FormatBool(h.artifacts.IsFresh(slot)))
	w.Header().Set("X-Artifact-Diagnostic", strconv.FormatBool(artifact.Diagnostic))
	w.Header().Set("Cache-Control", "no-cache")

	if since, err := http.ParseTime(r.Header.Get("If-Modified-Since")); err == nil {
		if !generated.Truncate(time.Second).After(since) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Bytes)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(artifact.Bytes); err != nil {
		log.Error().Err(err).Str("slot", slot.String()).Msg("Error writing artifact")
	}
}
