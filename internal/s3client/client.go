package s3client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	appConfig "s3transfer/config"
	"s3transfer/internal/apperr"
	"s3transfer/internal/models"
	"s3transfer/pkg/utils"
)

// API is the subset of the S3 client used here.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Client struct {
	api      API
	partSize int64
}

func New(ctx context.Context, cfg *appConfig.Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryMaxAttempts(cfg.MaxRetries),
		config.WithRetryMode(aws.RetryModeStandard),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.ApiURL != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ApiURL)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	return NewWithAPI(s3Client, cfg.ChunkSize), nil
}

// NewWithAPI wraps an existing API implementation. partSize <= 0 keeps the
// downloader default.
func NewWithAPI(api API, partSize int64) *Client {
	return &Client{api: api, partSize: partSize}
}

func (c *Client) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	objects, err := c.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ListObjects pages through the whole listing under prefix.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []models.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Error("Error listing objects", "bucket", bucket, "prefix", prefix, "error", err)
			return nil, apperr.NewStorageError("list", bucket, "", classify(err))
		}

		for _, obj := range page.Contents {
			info := models.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}

	return objects, nil
}

func (c *Client) ObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	resp, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Error("Error getting object size", "bucket", bucket, "key", key, "error", err)
		return 0, apperr.NewStorageError("head", bucket, key, classify(err))
	}
	return aws.ToInt64(resp.ContentLength), nil
}

// Copy performs a server-side copy of key into destinationBucket under the
// same key.
func (c *Client) Copy(ctx context.Context, sourceBucket, key, destinationBucket string) error {
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		CopySource: aws.String(sourceBucket + "/" + url.PathEscape(key)),
		Bucket:     aws.String(destinationBucket),
		Key:        aws.String(key),
	})
	if err != nil {
		return apperr.NewStorageError("copy", sourceBucket, key, classify(err))
	}
	return nil
}

// FetchToPath downloads key into destinationPath, creating parent
// directories. The object is written to a temporary file next to the
// destination and renamed over it only once complete, so a failed fetch
// leaves any earlier copy in place. The downloaded bytes are not checksummed.
func (c *Client) FetchToPath(ctx context.Context, bucket, key, destinationPath string) (int64, error) {
	size, err := c.ObjectSize(ctx, bucket, key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(destinationPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", destinationPath, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(destinationPath)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file for %s: %w", destinationPath, err)
	}
	tmpPath := file.Name()
	committed := false
	defer func() {
		file.Close()
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	slog.Info("Downloading object", "key", key, "size", utils.FormatSize(size))

	downloader := manager.NewDownloader(c.api, func(d *manager.Downloader) {
		d.Concurrency = 1
		if c.partSize > 0 {
			d.PartSize = c.partSize
		}
	})

	writer := &progressWriter{file: file, key: key, total: size}
	n, err := downloader.Download(ctx, writer, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, apperr.NewStorageError("get", bucket, key, classify(err))
	}

	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temporary file for %s: %w", destinationPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf("failed to set permissions on %s: %w", destinationPath, err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		return 0, fmt.Errorf("failed to move download into %s: %w", destinationPath, err)
	}
	committed = true

	return n, nil
}

type progressWriter struct {
	file    *os.File
	key     string
	total   int64
	written atomic.Int64
}

func (w *progressWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := w.file.WriteAt(p, off)
	done := w.written.Add(int64(n))
	slog.Debug("Download progress", "key", w.key, "written", utils.FormatSize(done), "total", utils.FormatSize(w.total))
	return n, err
}

func classify(err error) error {
	var (
		noSuchKey    *types.NoSuchKey
		notFound     *types.NotFound
		noSuchBucket *types.NoSuchBucket
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", apperr.ErrObjectNotFound, err)
	case errors.As(err, &noSuchBucket):
		return fmt.Errorf("%w: %w", apperr.ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", apperr.ErrObjectNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", apperr.ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %w", apperr.ErrAccessDenied, err)
		}
	}
	return err
}
