package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PresignTTL bounds how long an issued upload or download URL stays
// valid. Blob refs stored on records outlive the URL; clients re-request
// a fresh URL from the ref whenever they need the bytes again.
const PresignTTL = 15 * time.Minute

// Config carries the S3 (or MinIO) connection settings. BaseEndpoint is
// optional; leave it empty for real AWS.
type Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// Store issues presigned URLs for package and manifest blobs. The
// registry never proxies blob bytes; records carry opaque storage keys
// and clients move the data directly against S3.
type Store struct {
	presign *s3.PresignClient
	bucket  string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{presign: s3.NewPresignClient(client), bucket: cfg.Bucket}, nil
}

// NewUploadURL allocates a fresh storage key under the given blob kind
// ("packages" or "manifests") and returns it with a presigned PUT URL.
func (s *Store) NewUploadURL(ctx context.Context, kind string) (string, string, error) {
	key := storageKey(kind)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", "", err
	}
	return key, req.URL, nil
}

// DownloadURL returns a presigned GET URL for an existing blob ref.
func (s *Store) DownloadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("blob key is required")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func storageKey(kind string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}
