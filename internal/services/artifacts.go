package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/yungbote/adpersona-backend/internal/clients/gcp"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

const DefaultUploadMaxBytes int64 = 100 << 20

var allowedMIMETypes = map[string]ad.Modality{
	"image/jpeg":      ad.ModalityImage,
	"image/jpg":       ad.ModalityImage,
	"image/png":       ad.ModalityImage,
	"image/webp":      ad.ModalityImage,
	"video/mp4":       ad.ModalityVideo,
	"video/mov":       ad.ModalityVideo,
	"video/quicktime": ad.ModalityVideo,
	"video/avi":       ad.ModalityVideo,
	"video/mkv":       ad.ModalityVideo,
	"video/webm":      ad.ModalityVideo,
}

var mimeExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/mov":       ".mov",
	"video/quicktime": ".mov",
	"video/avi":       ".avi",
	"video/mkv":       ".mkv",
	"video/webm":      ".webm",
}

var errTooLarge = errors.New("artifact exceeds size limit")

// NormalizeMIME lowercases a content type and drops parameters.
func NormalizeMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// ModalityOfMIME reports which creative modality an upload type belongs to.
func ModalityOfMIME(contentType string) (ad.Modality, bool) {
	m, ok := allowedMIMETypes[NormalizeMIME(contentType)]
	return m, ok
}

func artifactName(field, filename, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		ext = mimeExt[mimeType]
	}
	field = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(field))
	if field == "" {
		field = "ad"
	}
	return fmt.Sprintf("%s_%d%s", field, time.Now().UnixNano(), ext)
}

// capped fails once more than max bytes have been read.
type capped struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *capped) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, errTooLarge
	}
	return n, err
}

func checkUpload(op, mimeType string) (string, error) {
	mt := NormalizeMIME(mimeType)
	if _, ok := allowedMIMETypes[mt]; !ok {
		return "", apperr.InvalidInput(op, fmt.Sprintf("unsupported file type %q: only images and videos are allowed", mimeType))
	}
	return mt, nil
}

type localArtifactStore struct {
	log      *logger.Logger
	dir      string
	maxBytes int64
}

// NewLocalArtifactStore stores uploads as files under dir.
func NewLocalArtifactStore(log *logger.Logger, dir string, maxBytes int64) (ArtifactStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "./uploads"
	}
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localArtifactStore{log: log.With("service", "LocalArtifactStore"), dir: dir, maxBytes: maxBytes}, nil
}

func (s *localArtifactStore) Save(ctx context.Context, field, filename, mimeType string, r io.Reader) (ArtifactRef, error) {
	const op = "ArtifactStore.Save"
	mt, err := checkUpload(op, mimeType)
	if err != nil {
		return ArtifactRef{}, err
	}
	name := artifactName(field, filename, mt)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return ArtifactRef{}, apperr.Wrap(apperr.KindInternal, op, err)
	}
	n, err := io.Copy(f, &capped{r: r, max: s.maxBytes})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, errTooLarge) {
			return ArtifactRef{}, apperr.InvalidInput(op, fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
		}
		return ArtifactRef{}, apperr.Wrap(apperr.KindInternal, op, err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return ArtifactRef{}, apperr.InvalidInput(op, "uploaded file is empty")
	}
	s.log.Debug("Stored artifact", "name", name, "bytes", n)
	return ArtifactRef{URI: name, Filename: filename, MimeType: mt, Size: n}, nil
}

func (s *localArtifactStore) path(ref ArtifactRef) (string, error) {
	name := filepath.Base(strings.TrimSpace(ref.URI))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", apperr.InvalidInput("ArtifactStore.Open", "artifact reference is required")
	}
	return filepath.Join(s.dir, name), nil
}

func (s *localArtifactStore) Open(ctx context.Context, ref ArtifactRef) ([]byte, error) {
	const op = "ArtifactStore.Open"
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.InvalidInput(op, "artifact not found: "+filepath.Base(path))
		}
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}
	if st.Size() > s.maxBytes {
		return nil, apperr.InvalidInput(op, "artifact exceeds the size limit")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}
	return data, nil
}

func (s *localArtifactStore) Delete(ctx context.Context, ref ArtifactRef) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Wrap(apperr.KindInternal, "ArtifactStore.Delete", err)
	}
	return nil
}

type gcsArtifactStore struct {
	log      *logger.Logger
	bucket   gcp.Bucket
	maxBytes int64
	timeout  time.Duration
}

// NewGCSArtifactStore stores uploads in a bucket; refs are gs:// URIs.
func NewGCSArtifactStore(log *logger.Logger, bucket gcp.Bucket, maxBytes int64, timeout time.Duration) ArtifactStore {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &gcsArtifactStore{log: log.With("service", "GCSArtifactStore"), bucket: bucket, maxBytes: maxBytes, timeout: timeout}
}

func (s *gcsArtifactStore) Save(ctx context.Context, field, filename, mimeType string, r io.Reader) (ArtifactRef, error) {
	const op = "ArtifactStore.Save"
	mt, err := checkUpload(op, mimeType)
	if err != nil {
		return ArtifactRef{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cr := &capped{r: r, max: s.maxBytes}
	uri, err := s.bucket.Upload(ctx, "uploads/"+artifactName(field, filename, mt), mt, cr)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return ArtifactRef{}, apperr.InvalidInput(op, fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
		}
		return ArtifactRef{}, &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "artifact upload failed", Cause: err}
	}
	if cr.n == 0 {
		_ = s.bucket.Delete(ctx, uri)
		return ArtifactRef{}, apperr.InvalidInput(op, "uploaded file is empty")
	}
	return ArtifactRef{URI: uri, Filename: filename, MimeType: mt, Size: cr.n}, nil
}

func (s *gcsArtifactStore) Open(ctx context.Context, ref ArtifactRef) ([]byte, error) {
	const op = "ArtifactStore.Open"
	if _, _, err := gcp.ParseURI(ref.URI); err != nil {
		return nil, apperr.InvalidInput(op, "artifact reference must be a gs:// uri")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	data, err := s.bucket.Download(ctx, ref.URI, s.maxBytes)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, gcp.ErrObjectNotFound):
		return nil, apperr.InvalidInput(op, "artifact not found: "+ref.URI)
	case errors.Is(err, gcp.ErrObjectTooLarge):
		return nil, apperr.InvalidInput(op, "artifact exceeds the size limit")
	default:
		return nil, &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "artifact download failed", Cause: err}
	}
}

func (s *gcsArtifactStore) Delete(ctx context.Context, ref ArtifactRef) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.bucket.Delete(ctx, ref.URI)
}

// checkCreative rejects creatives that cannot be evaluated as the given modality.
func checkCreative(op string, modality ad.Modality, ref ArtifactRef, data []byte) error {
	if len(data) == 0 {
		return apperr.InvalidInput(op, "artifact is empty: "+ref.URI)
	}
	mt := NormalizeMIME(ref.MimeType)
	if m, ok := allowedMIMETypes[mt]; !ok || m != modality {
		return apperr.InvalidInput(op, fmt.Sprintf("artifact %s is %q, expected a %s", ref.URI, ref.MimeType, modality))
	}
	if modality == ad.ModalityImage {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return apperr.InvalidInput(op, "artifact is not a readable image: "+ref.URI)
		}
	}
	return nil
}
