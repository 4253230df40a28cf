package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poiesic/vsloader/core"
)

// ObjectGetter is the subset of the S3 client used by S3Loader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectGetter = (*s3.Client)(nil)

// S3Loader reads whole objects from a single bucket.
type S3Loader struct {
	client ObjectGetter
	bucket string
	logger *slog.Logger
}

var _ Loader = (*S3Loader)(nil)

// NewS3Loader creates a loader for bucket using an existing client.
func NewS3Loader(client ObjectGetter, bucket string, logger *slog.Logger) (*S3Loader, error) {
	if client == nil {
		return nil, errors.New("s3 loader: client required")
	}
	if bucket == "" {
		return nil, errors.New("s3 loader: bucket required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With("component", "s3-loader", "bucket", bucket),
	}, nil
}

// NewS3LoaderFromRegion builds an S3 client from the default AWS credential chain.
func NewS3LoaderFromRegion(ctx context.Context, region, bucket string, logger *slog.Logger) (*S3Loader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: loading aws config: %w", core.ErrStorageUnavailable, err)
	}
	return NewS3Loader(s3.NewFromConfig(awsCfg), bucket, logger)
}

// Load fetches the object named fileName and returns its body in memory.
func (l *S3Loader) Load(ctx context.Context, fileName string) (RawData, error) {
	l.logger.Debug("fetching object", "key", fileName)

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		return RawData{}, fmt.Errorf("%w: s3://%s/%s: %w", core.ErrStorageUnavailable, l.bucket, fileName, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return RawData{}, fmt.Errorf("%w: reading s3://%s/%s: %w", core.ErrStorageUnavailable, l.bucket, fileName, err)
	}

	l.logger.Debug("fetched object", "key", fileName, "bytes", len(body))
	return RawData{Name: fileName, Bytes: body}, nil
}
