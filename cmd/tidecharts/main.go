package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/tidecharts/internal/awsclient"
	"github.com/bbernstein/tidecharts/internal/cache"
	"github.com/bbernstein/tidecharts/internal/config"
	"github.com/bbernstein/tidecharts/internal/coordinator"
	"github.com/bbernstein/tidecharts/internal/handler"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/publish"
	"github.com/bbernstein/tidecharts/internal/render"
	"github.com/bbernstein/tidecharts/internal/scheduler"
	"github.com/bbernstein/tidecharts/internal/source"
	"github.com/bbernstein/tidecharts/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	registry  *coordinator.Registry
	scheduler *scheduler.Scheduler
	store     *publish.Store
	server    *http.Server
}

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	if err := a.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	var payloads source.PayloadStore
	cacheConfig := config.GetCacheConfig()
	if cacheConfig.EnableLRUCache {
		var backend cache.PayloadBackend
		if cacheConfig.EnableDynamoCache {
			dynamoClient, err := awsclient.NewDynamoClient(ctx, cfg.AWSEndpoint)
			if err != nil {
				return nil, err
			}
			backend = cache.NewDynamoPayloadCache(dynamoClient, cacheConfig)
		}
		lruCache, err := cache.NewPayloadCache(cacheConfig, backend)
		if err != nil {
			return nil, err
		}
		payloads = lruCache
	}

	// Each caller gets its own HTTP client and so its own circuit breaker;
	// one failing station must not trip the breaker for the others.
	newSource := func(name string) (source.Source, error) {
		httpClient := client.New(client.Options{
			BaseURL: cfg.SourceBaseURL(),
			Timeout: cfg.HTTPTimeout,
			Name:    name,
		})
		src, err := source.New(cfg.TideSource, httpClient)
		if err != nil {
			return nil, err
		}
		if payloads != nil {
			src = source.NewCachedSource(src, payloads)
		}
		return src, nil
	}

	listSource, err := newSource(string(cfg.TideSource) + ":stations")
	if err != nil {
		return nil, err
	}

	stations, err := resolveStations(cfg)
	if err != nil {
		return nil, err
	}

	var s3Client *s3.Client
	if cfg.StationCacheBucket != "" || cfg.ArtifactBucket != "" {
		s3Client, err = awsclient.NewS3Client(ctx, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}
	}

	var listCache source.StationListCache
	if cfg.StationCacheBucket != "" {
		listCache = cache.NewS3StationCache(s3Client, cfg.StationCacheBucket, cfg.TideSource, cacheConfig.GetStationListTTL())
	}
	directory := source.NewStationDirectory(listSource, cache.NewStationCache(cacheConfig.GetStationListTTL()), listCache, stations)

	store := publish.NewStore()
	var publisher publish.Publisher = store
	if cfg.ArtifactBucket != "" {
		publisher = publish.NewMulti(store, publish.NewS3Publisher(s3Client, cfg.ArtifactBucket))
	}

	a := &app{
		registry:  coordinator.NewRegistry(),
		scheduler: scheduler.New(cfg.CycleTimeout),
		store:     store,
	}

	renderer := render.NewRenderer()
	opts := coordinator.Options{
		PlotDays:     cfg.PlotDays,
		TableDays:    cfg.TableDays,
		FetchTimeout: cfg.FetchTimeout,
		CycleTimeout: cfg.CycleTimeout,
		OnStateChange: func(stationID string, from, to coordinator.State) {
			log.Debug().
				Str("station_id", stationID).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Station state changed")
		},
	}
	for i, station := range stations {
		src, err := newSource(string(cfg.TideSource) + ":" + station.ID)
		if err != nil {
			return nil, err
		}
		c := coordinator.New(station, src, renderer, publisher, opts)
		a.registry.Add(c)
		interval := cfg.Stations[i].IntervalOr(cfg.UpdateInterval)
		if err := a.scheduler.AddStation(station.ID, interval, c); err != nil {
			return nil, err
		}
		log.Info().
			Str("station_id", station.ID).
			Str("station_name", station.Name).
			Dur("interval", interval).
			Msg("Tracking station")
	}

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(directory, store, a.registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// removeStation tears a station down: no further refreshes, no status and
// no published artifacts.
func (a *app) removeStation(stationID string) error {
	if _, ok := a.registry.Get(stationID); !ok {
		return fmt.Errorf("station %s is not tracked", stationID)
	}
	if err := a.scheduler.RemoveStation(stationID); err != nil {
		return err
	}
	a.registry.Remove(stationID)
	a.store.Forget(stationID)
	log.Info().Str("station_id", stationID).Msg("Station removed")
	return nil
}

// resolveStations turns the configured stations into models.Station values.
// These double as the fallback station list.
func resolveStations(cfg *config.Config) ([]models.Station, error) {
	stations := make([]models.Station, 0, len(cfg.Stations))
	for _, sc := range cfg.Stations {
		station, err := sc.Station(cfg.TideSource)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, nil
}

func (a *app) run(ctx context.Context) error {
	a.scheduler.Start()
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Msg("Serving tide charts")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
