// Package snapshot keeps the local catalog in sync with a corpus snapshot
// published to an S3-compatible bucket. A background poller watches the
// snapshot object's ETag; when it changes the zstd-compressed corpus is
// downloaded, re-ingested into a fresh SQLite file, and hot-swapped in.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned when the snapshot object does not exist.
var ErrNotFound = errors.New("snapshot: object not found")

// StoreConfig holds S3-compatible object store configuration.
type StoreConfig struct {
	Endpoint    string // e.g. https://account-id.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	Bucket      string
}

// Store provides snapshot object operations against an S3-compatible bucket.
type Store struct {
	s3     *s3.Client
	bucket string
}

// NewStore creates a new snapshot object store.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("snapshot: all store config fields are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for R2 and MinIO
	})

	return &Store{
		s3:     s3Client,
		bucket: cfg.Bucket,
	}, nil
}

// Head retrieves the ETag of an object without downloading the body.
// Returns ErrNotFound if the object does not exist.
func (s *Store) Head(ctx context.Context, key string) (string, error) {
	result, err := s.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("snapshot: head %q: %w", key, err)
	}
	return cleanETag(result.ETag), nil
}

// Download downloads an object. Returns the body and ETag.
// Caller must close the body.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("snapshot: download %q: %w", key, err)
	}
	return result.Body, cleanETag(result.ETag), nil
}

// Upload uploads an object and returns its ETag.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := s.s3.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("snapshot: upload %q: %w", key, err)
	}
	return cleanETag(result.ETag), nil
}

// Publish compresses a corpus file with zstd and uploads it under key.
// Returns the ETag of the uploaded snapshot.
func (s *Store) Publish(ctx context.Context, key, corpusPath string) (string, error) {
	compressedPath := corpusPath + ".zst"
	if err := CompressFile(corpusPath, compressedPath); err != nil {
		return "", fmt.Errorf("snapshot: publish: %w", err)
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("snapshot: publish: open compressed file: %w", err)
	}
	defer f.Close()

	return s.Upload(ctx, key, f, "application/zstd")
}

func cleanETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, "\"")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}

// CompressFile compresses a file with zstd and writes it to dstPath.
func CompressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("compress: open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("compress: create dest: %w", err)
	}
	defer dst.Close()

	encoder, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("compress: create encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("compress: copy: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("compress: close encoder: %w", err)
	}

	return nil
}

// DecompressStream decompresses a zstd stream to dstPath.
// Streams the data so large snapshots never reside in memory whole.
func DecompressStream(r io.Reader, dstPath string) error {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("decompress: create dest: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, decoder); err != nil {
		return fmt.Errorf("decompress: copy: %w", err)
	}

	return nil
}
