// Package s3 keeps room photos in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"hotelier/internal/domain/shared/fault"
)

var (
	ErrNotConfigured       = errors.New("s3: photo storage is not configured")
	ErrUnsupportedImage    = fault.Validation("s3: only jpeg, png and webp photos are accepted")
	ErrObjectKeyRequired   = errors.New("s3: object key is required")
	ErrPhotoReaderRequired = errors.New("s3: photo body is required")
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

type Options struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// PhotoStore uploads room photos and returns the URL stored on the room.
type PhotoStore struct {
	bucket  string
	baseURL string
	client  *minio.Client
	logger  *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

func NewPhotoStore(opts Options, logger *slog.Logger) (*PhotoStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicEndpoint)
	if base == "" {
		base = endpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoStore{bucket: bucket, baseURL: strings.TrimRight(base, "/"), client: client, logger: logger}, nil
}

func (s *PhotoStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", ErrPhotoReaderRequired
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrObjectKeyRequired
	}
	contentType, err := imageContentType(contentType)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	link := PublicURL(s.baseURL, s.bucket, key)
	s.logger.Info("room photo stored", "bucket", s.bucket, "key", key, "size", info.Size)
	return link, nil
}

// ensureBucket creates the bucket on first use and opens it for anonymous reads
// so photo URLs can be served directly.
func (s *PhotoStore) ensureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/rooms/*"]}]}`, s.bucket)
		if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
			s.bucketErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return s.bucketErr
}

// Disabled rejects every upload; wired when no S3 endpoint is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func PublicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}

func imageContentType(raw string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	if _, ok := allowedImageTypes[ct]; !ok {
		return "", ErrUnsupportedImage
	}
	return ct, nil
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
