package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bbernstein/tidecharts/internal/config"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// DynamoDBClient defines the DynamoDB operations the payload cache needs
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoPayloadCache handles caching raw daily payloads in DynamoDB
type DynamoPayloadCache struct {
	client    DynamoDBClient
	tableName string
	ttl       time.Duration
	clock     clock
}

func NewDynamoPayloadCache(client DynamoDBClient, cacheConfig *config.CacheConfig) *DynamoPayloadCache {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	return &DynamoPayloadCache{
		client:    client,
		tableName: cacheConfig.PayloadTableName,
		ttl:       cacheConfig.GetDynamoTTL(),
		clock:     &systemClock{},
	}
}

// GetPayload retrieves a cached payload for a station and date
func (c *DynamoPayloadCache) GetPayload(ctx context.Context, stationID string, date time.Time) (*models.DailyPayloadRecord, error) {
	dateStr := date.Format("2006-01-02")

	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"stationId": &types.AttributeValueMemberS{Value: stationID},
			"date":      &types.AttributeValueMemberS{Value: dateStr},
		},
	}

	result, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting payload from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record models.DailyPayloadRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling payload record: %w", err)
	}

	// Check if cache is valid
	if c.clock.Now().Unix() >= record.TTL {
		log.Debug().
			Str("station_id", stationID).
			Str("date", dateStr).
			Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

// SavePayload stores a payload record with a TTL
func (c *DynamoPayloadCache) SavePayload(ctx context.Context, record models.DailyPayloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid payload record: %w", err)
	}

	now := c.clock.Now().Unix()
	record.LastUpdated = now
	record.TTL = now + int64(c.ttl.Seconds())

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling payload record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting payload in DynamoDB: %w", err)
	}

	log.Debug().
		Str("station_id", record.StationID).
		Str("date", record.Date).
		Msg("Saved payload to cache")

	return nil
}
