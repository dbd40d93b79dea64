package gcp

import (
	"context"
	"fmt"
	"strings"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	vipb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type VideoAnnotator interface {
	// AnnotateVideo needs a gs:// uri; the API does not accept inline bytes above a few MB.
	AnnotateVideo(ctx context.Context, gcsURI string) (*Annotation, error)
	Close() error
}

type videoAnnotator struct {
	log          *logger.Logger
	client       *videointelligence.Client
	languageCode string
}

func NewVideoAnnotator(ctx context.Context, log *logger.Logger) (VideoAnnotator, error) {
	c, err := videointelligence.NewClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("videointelligence client: %w", err)
	}
	return &videoAnnotator{log: log.With("service", "gcp.Video"), client: c, languageCode: "en-US"}, nil
}

func (s *videoAnnotator) Close() error { return s.client.Close() }

func (s *videoAnnotator) AnnotateVideo(ctx context.Context, gcsURI string) (*Annotation, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}
	req := &vipb.AnnotateVideoRequest{
		InputUri: gcsURI,
		Features: []vipb.Feature{
			vipb.Feature_SPEECH_TRANSCRIPTION,
			vipb.Feature_TEXT_DETECTION,
			vipb.Feature_SHOT_CHANGE_DETECTION,
		},
		VideoContext: &vipb.VideoContext{
			SpeechTranscriptionConfig: &vipb.SpeechTranscriptionConfig{
				LanguageCode:               s.languageCode,
				EnableAutomaticPunctuation: true,
			},
			TextDetectionConfig: &vipb.TextDetectionConfig{},
		},
	}
	op, err := s.client.AnnotateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("videointelligence AnnotateVideo: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("videointelligence wait: %w", err)
	}
	out := &Annotation{Provider: "gcp_videointelligence"}
	if resp == nil || len(resp.AnnotationResults) == 0 || resp.AnnotationResults[0] == nil {
		return out, nil
	}
	ar := resp.AnnotationResults[0]
	out.Transcript = transcriptText(ar.SpeechTranscriptions)
	out.Text = onScreenText(ar.TextAnnotations)
	out.ShotCount, out.AvgShotSeconds = shotStats(ar.ShotAnnotations)
	return out, nil
}

func transcriptText(st []*vipb.SpeechTranscription) string {
	var parts []string
	for _, tr := range st {
		if tr == nil || len(tr.Alternatives) == 0 || tr.Alternatives[0] == nil {
			continue
		}
		if t := strings.TrimSpace(tr.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func onScreenText(ann []*vipb.TextAnnotation) string {
	seen := map[string]bool{}
	var parts []string
	for _, ta := range ann {
		if ta == nil {
			continue
		}
		t := strings.TrimSpace(ta.Text)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		parts = append(parts, t)
	}
	return strings.Join(parts, " | ")
}

func shotStats(shots []*vipb.VideoSegment) (int, float64) {
	n := 0
	total := 0.0
	for _, sh := range shots {
		if sh == nil {
			continue
		}
		d := durationSeconds(sh.EndTimeOffset) - durationSeconds(sh.StartTimeOffset)
		if d <= 0 {
			continue
		}
		n++
		total += d
	}
	if n == 0 {
		return 0, 0
	}
	return n, total / float64(n)
}

func durationSeconds(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return d.AsDuration().Seconds()
}
