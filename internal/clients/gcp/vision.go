package gcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type ImageAnnotator interface {
	AnnotateImage(ctx context.Context, img []byte) (*Annotation, error)
	Close() error
}

type imageAnnotator struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewImageAnnotator(ctx context.Context, log *logger.Logger) (ImageAnnotator, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &imageAnnotator{log: log.With("service", "gcp.Vision"), client: c}, nil
}

func (s *imageAnnotator) Close() error { return s.client.Close() }

// AnnotateImage runs text, label and logo detection in one request.
func (s *imageAnnotator) AnnotateImage(ctx context.Context, img []byte) (*Annotation, error) {
	out := &Annotation{Provider: "gcp_vision"}
	if len(img) == 0 {
		return out, nil
	}
	req := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_TEXT_DETECTION},
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 8},
			{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: 3},
		},
	}}}
	resp, err := s.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return out, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation != nil {
		out.Text = strings.TrimSpace(r0.FullTextAnnotation.Text)
	} else if len(r0.TextAnnotations) > 0 && r0.TextAnnotations[0] != nil {
		out.Text = strings.TrimSpace(r0.TextAnnotations[0].Description)
	}
	out.Labels = topDescriptions(r0.LabelAnnotations, 0.6)
	out.Logos = topDescriptions(r0.LogoAnnotations, 0.5)
	return out, nil
}

func topDescriptions(anns []*visionpb.EntityAnnotation, minScore float32) []string {
	sorted := make([]*visionpb.EntityAnnotation, 0, len(anns))
	for _, a := range anns {
		if a != nil && a.Score >= minScore && strings.TrimSpace(a.Description) != "" {
			sorted = append(sorted, a)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	out := make([]string, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, strings.TrimSpace(a.Description))
	}
	return out
}
