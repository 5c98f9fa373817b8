package publish

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// S3Client is the subset of the S3 API the publisher needs
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher mirrors artifacts to an S3 bucket.
type S3Publisher struct {
	client     S3Client
	bucketName string
}

var _ Publisher = (*S3Publisher)(nil)

func NewS3Publisher(client S3Client, bucketName string) *S3Publisher {
	return &S3Publisher{client: client, bucketName: bucketName}
}

// ObjectKey is the bucket key for a slot, e.g. "33/plot-3d-dark.svg".
func ObjectKey(slot models.Slot) string {
	return fmt.Sprintf("%s/%s-%dd-%s.svg", slot.StationID, slot.Kind, slot.DayRange, slot.Theme)
}

func (p *S3Publisher) Publish(ctx context.Context, slot models.Slot, artifact models.RenderedArtifact) error {
	if p.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucketName),
		Key:         aws.String(ObjectKey(slot)),
		Body:        bytes.NewReader(artifact.Bytes),
		ContentType: aws.String(artifact.ContentType),
		Metadata: map[string]string{
			"generated-at": artifact.GeneratedAt.UTC().Format(time.RFC3339),
			"diagnostic":   fmt.Sprintf("%t", artifact.Diagnostic),
		},
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", ObjectKey(slot), err)
	}

	log.Debug().Str("slot", slot.String()).Int("bytes", len(artifact.Bytes)).Msg("Mirrored artifact to S3")
	return nil
}

// MarkUpdated is a no-op; the bucket only holds artifacts.
func (p *S3Publisher) MarkUpdated(stationID string, ok bool) {}
