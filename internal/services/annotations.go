package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/adpersona-backend/internal/clients/gcp"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type gcpAnnotator struct {
	log     *logger.Logger
	images  gcp.ImageAnnotator
	videos  gcp.VideoAnnotator
	timeout time.Duration
}

// NewGCPAnnotator uses Cloud Vision for images and Video Intelligence for gs:// videos.
// Either annotator may be nil.
func NewGCPAnnotator(log *logger.Logger, images gcp.ImageAnnotator, videos gcp.VideoAnnotator, timeout time.Duration) Annotator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &gcpAnnotator{log: log.With("service", "CreativeAnnotator"), images: images, videos: videos, timeout: timeout}
}

func (a *gcpAnnotator) Annotate(ctx context.Context, modality ad.Modality, ref ArtifactRef, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		ann *gcp.Annotation
		err error
	)
	switch modality {
	case ad.ModalityImage:
		if a.images == nil {
			return "", nil
		}
		ann, err = a.images.AnnotateImage(ctx, data)
	case ad.ModalityVideo:
		// Video Intelligence reads from GCS only.
		if a.videos == nil || !strings.HasPrefix(ref.URI, "gs://") {
			return "", nil
		}
		ann, err = a.videos.AnnotateVideo(ctx, ref.URI)
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ann.Hint(), nil
}
