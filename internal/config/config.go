package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNOAABaseURL = "https://api.tidesandcurrents.noaa.gov"
	DefaultIHMBaseURL  = "https://ideihm.covam.es"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	Port        string

	TideSource  models.Source
	NOAABaseURL string
	IHMBaseURL  string

	Stations       []StationConfig
	UpdateInterval time.Duration
	PlotDays       []int
	TableDays      []int
	FetchTimeout   time.Duration
	CycleTimeout   time.Duration

	ArtifactBucket     string
	StationCacheBucket string
	AWSEndpoint        string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithTideSource selects the upstream dialect. Unknown values keep NOAA.
func WithTideSource(source string) Option {
	return func(c *Config) {
		switch strings.ToUpper(strings.TrimSpace(source)) {
		case string(models.SourceIHM):
			c.TideSource = models.SourceIHM
		case string(models.SourceNOAA):
			c.TideSource = models.SourceNOAA
		default:
			log.Warn().Str("source", source).Msg("Unknown tide source, using NOAA")
			c.TideSource = models.SourceNOAA
		}
	}
}

func WithBaseURLs(noaa, ihm string) Option {
	return func(c *Config) {
		c.NOAABaseURL = noaa
		c.IHMBaseURL = ihm
	}
}

func WithStations(stations ...StationConfig) Option {
	return func(c *Config) {
		c.Stations = stations
	}
}

// WithUpdateInterval sets the default refresh cadence. Values outside the
// supported set fall back to six hours.
func WithUpdateInterval(interval time.Duration) Option {
	return func(c *Config) {
		if !ValidInterval(interval) {
			log.Warn().Dur("interval", interval).Msg("Unsupported update interval, using default")
			interval = DefaultUpdateInterval
		}
		c.UpdateInterval = interval
	}
}

func WithPlotDays(days ...int) Option {
	return func(c *Config) {
		c.PlotDays = days
	}
}

func WithTableDays(days ...int) Option {
	return func(c *Config) {
		c.TableDays = days
	}
}

func WithTimeouts(fetch, cycle time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = fetch
		c.CycleTimeout = cycle
	}
}

func WithBuckets(artifacts, stationCache string) Option {
	return func(c *Config) {
		c.ArtifactBucket = artifacts
		c.StationCacheBucket = stationCache
	}
}

func WithAWSEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.AWSEndpoint = endpoint
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		HTTPTimeout:    10 * time.Second,
		Port:           "8080",
		TideSource:     models.SourceNOAA,
		NOAABaseURL:    DefaultNOAABaseURL,
		IHMBaseURL:     DefaultIHMBaseURL,
		Stations:       []StationConfig{DefaultStation},
		UpdateInterval: DefaultUpdateInterval,
		PlotDays:       []int{1, 2, 3, 4, 5, 6, 7},
		TableDays:      []int{1, 3, 7},
		FetchTimeout:   15 * time.Second,
		CycleTimeout:   2 * time.Minute,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// DayRanges returns the union of plot and table day ranges in ascending order.
func (c *Config) DayRanges() []int {
	var seen [models.MaxDayRange + 1]bool
	for _, d := range c.PlotDays {
		if models.ValidDayRange(d) {
			seen[d] = true
		}
	}
	for _, d := range c.TableDays {
		if models.ValidDayRange(d) {
			seen[d] = true
		}
	}

	var out []int
	for d := models.MinDayRange; d <= models.MaxDayRange; d++ {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

// SourceBaseURL is the base URL of the selected tide source.
func (c *Config) SourceBaseURL() string {
	if c.TideSource == models.SourceIHM {
		return c.IHMBaseURL
	}
	return c.NOAABaseURL
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables, reading a
// .env file first when one is present.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	opts := []Option{
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithPort(getEnvOrDefault("PORT", "8080")),
		WithTideSource(getEnvOrDefault("TIDE_SOURCE", "noaa")),
		WithBaseURLs(
			getEnvOrDefault("NOAA_BASE_URL", DefaultNOAABaseURL),
			getEnvOrDefault("IHM_BASE_URL", DefaultIHMBaseURL),
		),
		WithTimeouts(
			getDurationEnvOrDefault("FETCH_TIMEOUT", 15*time.Second),
			getDurationEnvOrDefault("CYCLE_TIMEOUT", 2*time.Minute),
		),
		WithBuckets(os.Getenv("ARTIFACT_BUCKET"), os.Getenv("STATION_CACHE_BUCKET")),
		WithAWSEndpoint(os.Getenv("AWS_ENDPOINT")),
	}

	if value := os.Getenv("UPDATE_INTERVAL"); value != "" {
		interval, err := ParseInterval(value)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid UPDATE_INTERVAL, using default")
		} else {
			opts = append(opts, WithUpdateInterval(interval))
		}
	}

	if value := os.Getenv("TIDE_STATIONS"); value != "" {
		stations, err := ParseStations(value)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid TIDE_STATIONS, using default station")
		} else {
			opts = append(opts, WithStations(stations...))
		}
	}

	if days := getDaysEnv("PLOT_DAYS"); days != nil {
		opts = append(opts, WithPlotDays(days...))
	}
	if days := getDaysEnv("TABLE_DAYS"); days != nil {
		opts = append(opts, WithTableDays(days...))
	}

	return New(opts...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getDaysEnv parses a comma separated list of day ranges, dropping any
// outside 1..7. Returns nil when the variable is unset or yields nothing.
func getDaysEnv(key string) []int {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var days []int
	for _, part := range strings.Split(value, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || !models.ValidDayRange(d) {
			log.Warn().Str("key", key).Str("value", part).Msg("Ignoring invalid day range")
			continue
		}
		days = append(days, d)
	}
	return days
}
