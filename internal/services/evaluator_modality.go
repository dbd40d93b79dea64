package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/prompts"
)

var evaluationPrompts = map[ad.Modality]prompts.PromptName{
	ad.ModalityImage: prompts.PromptEvaluateImage,
	ad.ModalityVideo: prompts.PromptEvaluateVideo,
	ad.ModalityText:  prompts.PromptEvaluateText,
}

// Provider-facing MIME names for the upload aliases.
var providerMIME = map[string]string{
	"image/jpg": "image/jpeg",
	"video/mov": "video/quicktime",
	"video/avi": "video/x-msvideo",
	"video/mkv": "video/x-matroska",
}

// prepare validates the creatives and builds the model prompt. It makes no AI call.
func (e *evaluator) prepare(ctx context.Context, persona *ad.Persona, in EvaluationInput) (llm.Prompt, error) {
	const op = "Evaluator.Evaluate"
	pin := prompts.Input{
		Persona:  persona.PromptSummary(),
		Modality: string(in.Modality),
		Criteria: ad.DefaultCriteria(in.Modality),
	}
	p := llm.Prompt{Operation: "evaluate_" + string(in.Modality)}

	switch in.Modality {
	case ad.ModalityText:
		pin.AdAText = strings.TrimSpace(in.AdAText)
		pin.AdBText = strings.TrimSpace(in.AdBText)
		if pin.AdAText == "" || pin.AdBText == "" {
			return llm.Prompt{}, apperr.InvalidInput(op, "both ad_a_text and ad_b_text are required")
		}
	default:
		media, hints, err := e.loadCreatives(ctx, in)
		if err != nil {
			return llm.Prompt{}, err
		}
		p.Media = media
		pin.AdAHint, pin.AdBHint = hints[0], hints[1]
	}

	built, err := prompts.Build(evaluationPrompts[in.Modality], pin)
	if err != nil {
		return llm.Prompt{}, apperr.Wrap(apperr.KindInternal, op, err)
	}
	p.Text = built.Text
	return p, nil
}

func (e *evaluator) loadCreatives(ctx context.Context, in EvaluationInput) ([]llm.Media, [2]string, error) {
	const op = "Evaluator.Evaluate"
	var hints [2]string
	refs := [2]ArtifactRef{in.AdA, in.AdB}
	for _, ref := range refs {
		if strings.TrimSpace(ref.URI) == "" {
			return nil, hints, apperr.InvalidInput(op, "both ad_a and ad_b files are required")
		}
	}
	if e.artifacts == nil {
		return nil, hints, apperr.New(apperr.KindInternal, op, "artifact store not configured")
	}

	var data [2][]byte
	for i, ref := range refs {
		b, err := e.artifacts.Open(ctx, ref)
		if err != nil {
			return nil, hints, err
		}
		if err := checkCreative(op, in.Modality, ref, b); err != nil {
			return nil, hints, err
		}
		data[i] = b
	}

	if e.cfg.AnnotationsEnabled && e.annotator != nil {
		g, gctx := errgroup.WithContext(ctx)
		for i := range refs {
			g.Go(func() error {
				hint, err := e.annotator.Annotate(gctx, in.Modality, refs[i], data[i])
				if err != nil {
					e.log.Warn("Creative annotation failed; continuing without hints", "uri", refs[i].URI, "error", err)
					return nil
				}
				hints[i] = hint
				return nil
			})
		}
		_ = g.Wait()
	}

	media := make([]llm.Media, 0, 2)
	for i, ref := range refs {
		mt := NormalizeMIME(ref.MimeType)
		if alias, ok := providerMIME[mt]; ok {
			mt = alias
		}
		media = append(media, llm.Media{MimeType: mt, Data: data[i], URI: ref.URI})
	}
	return media, hints, nil
}
