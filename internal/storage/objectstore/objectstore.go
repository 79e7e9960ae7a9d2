// Package objectstore keeps uploaded gallery and notice images in an
// S3-compatible bucket and maps between object keys and public URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	PrefixGallery = "gallery"
	PrefixNotices = "notices"

	uploadTimeout = 30 * time.Second
	removeTimeout = 10 * time.Second
)

// Client is the subset of *minio.Client used here.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
}

type Object struct {
	Key          string
	URL          string
	LastModified time.Time
	Size         int64
}

type Storage struct {
	client    Client
	bucket    string
	publicURL string
	now       func() time.Time
}

func New(cfg Config) (*Storage, error) {
	const op = "storage.objectstore.New"

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publicURL := strings.TrimSpace(cfg.PublicURL)
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return NewWithClient(client, cfg.Bucket, publicURL), nil
}

func NewWithClient(client Client, bucket, publicURL string) *Storage {
	return &Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// EnsureBucket creates the bucket on first start.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	const op = "storage.objectstore.EnsureBucket"

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Uploader binds uploads to one key prefix.
func (s *Storage) Uploader(prefix string) *PrefixUploader {
	return &PrefixUploader{s: s, prefix: prefix}
}

type PrefixUploader struct {
	s      *Storage
	prefix string
}

func (u *PrefixUploader) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	return u.s.Upload(ctx, u.prefix, name, contentType, r, size)
}

// Upload stores an image as <prefix>/<unix-ms>-<rand>.<ext> and returns its public URL.
func (s *Storage) Upload(ctx context.Context, prefix, name, contentType string, r io.Reader, size int64) (string, error) {
	const op = "storage.objectstore.Upload"

	contentType = storage.ImageContentType(contentType, name)
	if !storage.IsAllowedImage(contentType) {
		return "", fmt.Errorf("%s: %w: %q", op, storage.ErrInvalidFileType, contentType)
	}

	key := s.objectKey(prefix, storage.ImageExtension(contentType))

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=3600",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.PublicURL(key), nil
}

func (s *Storage) objectKey(prefix, ext string) string {
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return path.Join(prefix, fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), rnd, ext))
}

// Remove deletes the objects behind the given URLs. URLs that do not belong
// to the bucket are skipped. Every object is attempted; the errors are joined.
func (s *Storage) Remove(ctx context.Context, urls ...string) error {
	const op = "storage.objectstore.Remove"

	var errs []error
	for _, raw := range urls {
		key, ok := s.KeyFromURL(raw)
		if !ok {
			continue
		}

		if err := s.RemoveKey(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) RemoveKey(ctx context.Context, key string) error {
	removeCtx, cancel := context.WithTimeout(ctx, removeTimeout)
	defer cancel()

	return s.client.RemoveObject(removeCtx, s.bucket, key, minio.RemoveObjectOptions{})
}

// List returns every object under prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]Object, error) {
	const op = "storage.objectstore.List"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(prefix, "/") + "/",
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("%s: %w", op, info.Err)
		}
		out = append(out, Object{
			Key:          info.Key,
			URL:          s.PublicURL(info.Key),
			LastModified: info.LastModified,
			Size:         info.Size,
		})
	}

	return out, nil
}

func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, strings.TrimPrefix(key, "/"))
}

// KeyFromURL maps a public URL back to its object key.
func (s *Storage) KeyFromURL(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	if strings.HasPrefix(trimmed, s.publicURL+"/") {
		return s.trimBucket(strings.TrimPrefix(trimmed, s.publicURL+"/"))
	}

	target, err := url.Parse(trimmed)
	if err != nil || target.Host == "" {
		return "", false
	}
	base, err := url.Parse(s.publicURL)
	if err != nil || base.Host != target.Host {
		return "", false
	}

	return s.trimBucket(strings.TrimPrefix(target.Path, "/"))
}

func (s *Storage) trimBucket(p string) (string, bool) {
	if !strings.HasPrefix(p, s.bucket+"/") {
		return "", false
	}

	key := strings.TrimPrefix(p, s.bucket+"/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}

	return key, key != ""
}
