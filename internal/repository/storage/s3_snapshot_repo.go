package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/kadewerk/tally/tally-backend/internal/config"
)

// S3SnapshotStore implements SnapshotStore using AWS S3
type S3SnapshotStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
}

// NewS3SnapshotStore creates a new S3 snapshot store. The bucket is created
// on first use when it does not exist yet, which covers MinIO and LocalStack
// local setups where nothing provisions buckets ahead of time.
func NewS3SnapshotStore(ctx context.Context, s3cfg cfg.S3Config) (*S3SnapshotStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // MinIO and LocalStack route by path, not virtual host
		}
	})

	store := &S3SnapshotStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
		region:    s3cfg.Region,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureBucket verifies the snapshot bucket is reachable, creating it when it
// does not exist. The bucket stays private; downloads go through presigned
// URLs only.
func (r *S3SnapshotStore) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check snapshot bucket: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(r.bucket)}
	// us-east-1 rejects an explicit location constraint
	if r.region != "" && r.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(r.region),
		}
	}
	if _, err := r.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create snapshot bucket: %w", err)
	}

	return nil
}

// Upload stores a snapshot under objectPath and returns the path. The write
// is conditional on the key not existing: snapshots are immutable once
// archived, so a duplicate key fails instead of replacing the earlier
// artifact.
func (r *S3SnapshotStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(objectPath),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	return objectPath, nil
}

// GeneratePresignedURL generates a presigned GET URL for temporary access
func (r *S3SnapshotStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	presignedReq, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedReq.URL, nil
}
