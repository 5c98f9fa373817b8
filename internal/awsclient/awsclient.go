package awsclient

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const localRegion = "us-east-1"

// LoadConfig builds the shared AWS config. When endpoint is set (localstack,
// dynamodb-local) static dummy credentials are used so no real account is
// needed.
func LoadConfig(ctx context.Context, endpoint string) (aws.Config, error) {
	if endpoint == "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
		}
		return cfg, nil
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = localRegion
	}

	log.Debug().Str("endpoint", endpoint).Str("region", region).Msg("Using local AWS endpoint")
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithClientLogMode(aws.LogRetries),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading local AWS config: %w", err)
	}
	return cfg, nil
}

// NewDynamoClient creates a DynamoDB client, pointed at endpoint when set.
func NewDynamoClient(ctx context.Context, endpoint string) (*dynamodb.Client, error) {
	cfg, err := LoadConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewS3Client creates an S3 client. Local endpoints need path-style addressing.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := LoadConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
