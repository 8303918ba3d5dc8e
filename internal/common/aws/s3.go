// internal/common/aws/s3.go
package aws

import (
	"context"
	"fmt"
	"io"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client the service uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// UploadAPI is satisfied by *manager.Uploader.
type UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Client struct {
	client   S3API
	uploader UploadAPI
}

// NewS3Client builds a client from the default credential chain. Extra load
// options (static credentials, for example) are applied after the region.
func NewS3Client(ctx context.Context, region string, opts ...func(*config.LoadOptions) error) (*S3Client, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	loadOpts = append(loadOpts, opts...)

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Client{client: client, uploader: manager.NewUploader(client)}, nil
}

// NewS3ClientWithAPI is used in tests to inject fakes.
func NewS3ClientWithAPI(api S3API, uploader UploadAPI) *S3Client {
	return &S3Client{client: api, uploader: uploader}
}

// Fetch opens the object body as a stream. The caller must close it.
func (s *S3Client) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Upload streams body to bucket/key and returns the object location.
func (s *S3Client) Upload(ctx context.Context, bucket, key string, body io.Reader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("s3 client has no uploader configured")
	}
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}
	return out.Location, nil
}
