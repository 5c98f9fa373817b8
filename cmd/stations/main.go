package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/tidecharts/internal/awsclient"
	"github.com/bbernstein/tidecharts/internal/cache"
	"github.com/bbernstein/tidecharts/internal/config"
	"github.com/bbernstein/tidecharts/internal/handler"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/source"
	"github.com/bbernstein/tidecharts/pkg/http/client"
	"github.com/rs/zerolog/log"
)

var (
	lambdaStart     = lambda.Start // Allow mocking of lambda.Start in tests
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		httpClient := client.New(client.Options{
			BaseURL: cfg.SourceBaseURL(),
			Timeout: cfg.HTTPTimeout,
			Name:    string(cfg.TideSource),
		})

		src, err := source.New(cfg.TideSource, httpClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create tide source")
		}

		cacheConfig := config.GetCacheConfig()
		var listCache source.StationListCache
		if cfg.StationCacheBucket != "" {
			s3Client, err := awsclient.NewS3Client(context.Background(), cfg.AWSEndpoint)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create S3 client")
			}
			listCache = cache.NewS3StationCache(s3Client, cfg.StationCacheBucket, cfg.TideSource, cacheConfig.GetStationListTTL())
		}

		var fallback []models.Station
		for _, sc := range cfg.Stations {
			station, err := sc.Station(cfg.TideSource)
			if err != nil {
				log.Warn().Err(err).Str("station_id", sc.ID).Msg("Skipping fallback station")
				continue
			}
			fallback = append(fallback, station)
		}

		directory := source.NewStationDirectory(src, cache.NewStationCache(cacheConfig.GetStationListTTL()), listCache, fallback)
		stationsHandler = handler.NewStationsHandler(directory)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	lambdaStart(handleRequest)
}
