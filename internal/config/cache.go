package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// LRU Cache settings
	PayloadLRUSize       int
	PayloadLRUTTLMinutes int

	// DynamoDB Cache settings
	PayloadTableName     string
	PayloadDynamoTTLDays int

	// Station list cache settings
	StationListTTLDays int

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultPayloadLRUSize       = 1000
	defaultPayloadLRUTTLMinutes = 60
	defaultPayloadTableName     = "tide-payload-cache"
	defaultDynamoTTLDays        = 2
	defaultStationListTTLDays   = 2
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		PayloadLRUSize:       getEnvInt("CACHE_PAYLOAD_LRU_SIZE", defaultPayloadLRUSize),
		PayloadLRUTTLMinutes: getEnvInt("CACHE_PAYLOAD_LRU_TTL_MINUTES", defaultPayloadLRUTTLMinutes),
		PayloadTableName:     getEnvOrDefault("CACHE_PAYLOAD_TABLE", defaultPayloadTableName),
		PayloadDynamoTTLDays: getEnvInt("CACHE_DYNAMO_TTL_DAYS", defaultDynamoTTLDays),
		StationListTTLDays:   getEnvInt("CACHE_STATION_LIST_TTL_DAYS", defaultStationListTTLDays),
		EnableLRUCache:       getEnvBool("CACHE_ENABLE_LRU", true),
		EnableDynamoCache:    getEnvBool("CACHE_ENABLE_DYNAMO", false),
	}

	log.Debug().
		Int("PayloadLRUSize", config.PayloadLRUSize).
		Int("PayloadLRUTTLMinutes", config.PayloadLRUTTLMinutes).
		Str("PayloadTableName", config.PayloadTableName).
		Int("PayloadDynamoTTLDays", config.PayloadDynamoTTLDays).
		Int("StationListTTLDays", config.StationListTTLDays).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

func (c *CacheConfig) GetPayloadLRUTTL() time.Duration {
	return time.Duration(c.PayloadLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoTTL() time.Duration {
	return time.Duration(c.PayloadDynamoTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetStationListTTL() time.Duration {
	return time.Duration(c.StationListTTLDays) * 24 * time.Hour
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
