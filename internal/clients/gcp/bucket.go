package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// ErrObjectNotFound is returned when a gs:// object does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

// ErrObjectTooLarge is returned when an object exceeds the caller's byte limit.
var ErrObjectTooLarge = errors.New("gcs object too large")

type Bucket interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (uri string, err error)
	Download(ctx context.Context, uri string, maxBytes int64) ([]byte, error)
	Delete(ctx context.Context, uri string) error
	Close() error
}

type bucket struct {
	log    *logger.Logger
	client *storage.Client
	name   string
}

func NewBucket(ctx context.Context, name string, log *logger.Logger) (Bucket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing ARTIFACT_GCS_BUCKET")
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucket{log: log.With("service", "GCSBucket", "bucket", name), client: client, name: name}, nil
}

// ParseURI splits gs://bucket/key.
func ParseURI(uri string) (bucketName, key string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucketName, key, ok = strings.Cut(rest, "/")
	if !ok || bucketName == "" || key == "" {
		return "", "", fmt.Errorf("malformed gs:// uri: %q", uri)
	}
	return bucketName, key, nil
}

func (b *bucket) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", key, err)
	}
	b.log.Debug("Uploaded artifact", "key", key, "content_type", contentType)
	return "gs://" + b.name + "/" + key, nil
}

func (b *bucket) Download(ctx context.Context, uri string, maxBytes int64) ([]byte, error) {
	bucketName, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := b.client.Bucket(bucketName).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer rc.Close()
	var src io.Reader = rc
	if maxBytes > 0 {
		src = io.LimitReader(rc, maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrObjectTooLarge, uri, maxBytes)
	}
	return data, nil
}

func (b *bucket) Delete(ctx context.Context, uri string) error {
	bucketName, key, err := ParseURI(uri)
	if err != nil {
		return err
	}
	if err := b.client.Bucket(bucketName).Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", uri, err)
	}
	return nil
}

func (b *bucket) Close() error { return b.client.Close() }
