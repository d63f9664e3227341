package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/formvault/document-storage-backend/interfaces"
)

// defaultRegion is used when the configuration leaves the region empty.
const defaultRegion = "us-east-1"

// S3Backend stores objects in Amazon S3 or an S3-compatible service. It is
// constructed per call from the active BackendConfiguration and holds no
// state beyond the SDK client, so configuration changes take effect on the
// next call.
type S3Backend struct {
	client *s3.S3
	bucket string
	log    *slog.Logger
}

// NewS3Backend builds an S3 client from cfg. Explicit credentials take
// precedence; without them the SDK's default chain (environment, shared
// config, instance role) applies. A custom endpoint switches the client to
// path-style addressing for MinIO-style compatibles.
func NewS3Backend(cfg interfaces.BackendConfiguration, log *slog.Logger) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket must not be empty")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg := aws.Config{
		Region: aws.String(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		log:    log,
	}, nil
}

// Put uploads data under name. Objects stay private; read access goes
// through Get or a presigned URL.
func (b *S3Backend) Put(ctx context.Context, name interfaces.OpaqueName, data []byte, contentType string) error {
	start := time.Now()

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := b.client.PutObjectWithContext(ctx, input); err != nil {
		b.log.Error("Failed to upload object to S3",
			slog.String("bucket", b.bucket),
			slog.String("key", name.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	b.log.Debug("Stored object in S3",
		slog.String("bucket", b.bucket),
		slog.String("key", name.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Get downloads the full object stored under name.
// Returns ErrObjectNotFound if the key is absent.
func (b *S3Backend) Get(ctx context.Context, name interfaces.OpaqueName) ([]byte, error) {
	start := time.Now()

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
	})
	if err != nil {
		if isNotFound(err) {
			b.log.Debug("Object not found in S3",
				slog.String("bucket", b.bucket),
				slog.String("key", name.String()))
			return nil, interfaces.ErrObjectNotFound
		}
		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucket),
			slog.String("key", name.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Fetched object from S3",
		slog.String("bucket", b.bucket),
		slog.String("key", name.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

// Delete removes the object under name. The bool reports whether it existed;
// S3 deletes are idempotent, so existence is probed first.
func (b *S3Backend) Delete(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	existed, err := b.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	_, err = b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete object from S3: %w", err)
	}

	b.log.Debug("Deleted object from S3",
		slog.String("bucket", b.bucket),
		slog.String("key", name.String()))
	return true, nil
}

// Exists reports whether name is taken in the bucket.
func (b *S3Backend) Exists(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	_, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object in S3: %w", err)
	}
	return true, nil
}

// Head returns object metadata without downloading content.
func (b *S3Backend) Head(ctx context.Context, name interfaces.OpaqueName) (interfaces.ObjectInfo, error) {
	result, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
	})
	if err != nil {
		if isNotFound(err) {
			return interfaces.ObjectInfo{}, interfaces.ErrObjectNotFound
		}
		return interfaces.ObjectInfo{}, fmt.Errorf("failed to head object in S3: %w", err)
	}

	info := interfaces.ObjectInfo{}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.LastModified != nil {
		info.ModifiedAt = *result.LastModified
	}
	return info, nil
}

// Presign returns a time-limited GET URL for the object.
func (b *S3Backend) Presign(ctx context.Context, name interfaces.OpaqueName, ttl time.Duration) (string, error) {
	req, _ := b.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name.String()),
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign object URL: %w", err)
	}
	return url, nil
}

// Available checks bucket reachability with a HeadBucket probe.
func (b *S3Backend) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		b.log.Warn("S3 backend unavailable",
			slog.String("bucket", b.bucket),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}
	return true
}

// Kind identifies the storage medium.
func (b *S3Backend) Kind() interfaces.BackendKind {
	return interfaces.BackendRemote
}

// Name returns a unique identifier for this storage backend.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucket)
}

// isNotFound covers the SDK's spellings of an absent object.
func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") ||
		strings.Contains(err.Error(), "NotFound") ||
		strings.Contains(err.Error(), "404")
}
