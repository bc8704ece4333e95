package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appConfig "github.com/shopsift/shopsift-api/config"
)

// ArchiveService stores raw inbound payloads
type ArchiveService interface {
	ArchiveInbound(ctx context.Context, merchantID uint, email InboundEmail) (string, error)
}

// S3ArchiveService archives inbound payloads as JSON objects in S3
type S3ArchiveService struct {
	client *s3.Client
	bucket string
}

var archiveServiceInstance ArchiveService

// InitArchiveService initializes the S3 archive. Without a bucket no archive
// is installed and inbound mail is only stored in the database.
func InitArchiveService(ctx context.Context) (ArchiveService, error) {
	cfg := appConfig.GetConfig()
	if !cfg.ArchiveEnabled() {
		archiveServiceInstance = nil
		return nil, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	archiveServiceInstance = &S3ArchiveService{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}
	return archiveServiceInstance, nil
}

// GetArchiveService returns the archive, or nil when archiving is disabled
func GetArchiveService() ArchiveService {
	return archiveServiceInstance
}

// SetArchiveService sets the archive instance (primarily for testing)
func SetArchiveService(service ArchiveService) {
	archiveServiceInstance = service
}

// ArchiveKey builds inbound/<merchant>/<yyyy>/<mm>/<dd>/<uuid>.json
func ArchiveKey(merchantID uint, at time.Time, id uuid.UUID) string {
	at = at.UTC()
	return fmt.Sprintf("inbound/%d/%04d/%02d/%02d/%s.json", merchantID, at.Year(), int(at.Month()), at.Day(), id)
}

// ArchiveInbound uploads the payload and returns its key
func (s *S3ArchiveService) ArchiveInbound(ctx context.Context, merchantID uint, email InboundEmail) (string, error) {
	content, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("failed to encode inbound email: %w", err)
	}

	key := ArchiveKey(merchantID, time.Now(), uuid.New())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}
