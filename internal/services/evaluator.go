package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/llmjson"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// EvaluationInput carries the two creatives. Image and video use the refs, text uses the bodies.
type EvaluationInput struct {
	Modality ad.Modality
	AdA      ArtifactRef
	AdB      ArtifactRef
	AdAText  string
	AdBText  string
}

type Evaluator interface {
	// Evaluate scores both ads for one persona. It returns a complete result or an error, never a partial result.
	Evaluate(ctx context.Context, persona *ad.Persona, in EvaluationInput) (*ad.EvaluationResult, error)
}

type EvaluatorConfig struct {
	Timeout            time.Duration
	AnnotationsEnabled bool
}

type evaluator struct {
	log       *logger.Logger
	ai        llm.Client
	artifacts ArtifactStore
	annotator Annotator
	metrics   *observability.Metrics
	cfg       EvaluatorConfig
}

// NewEvaluator returns the evaluator for all three modalities. artifacts and annotator may be nil
// when only text ads are evaluated.
func NewEvaluator(log *logger.Logger, ai llm.Client, artifacts ArtifactStore, annotator Annotator, metrics *observability.Metrics, cfg EvaluatorConfig) Evaluator {
	return &evaluator{
		log:       log.With("service", "Evaluator"),
		ai:        ai,
		artifacts: artifacts,
		annotator: annotator,
		metrics:   metrics,
		cfg:       cfg,
	}
}

func (e *evaluator) Evaluate(ctx context.Context, persona *ad.Persona, in EvaluationInput) (*ad.EvaluationResult, error) {
	const op = "Evaluator.Evaluate"
	if persona == nil {
		return nil, apperr.InvalidInput(op, "persona is required")
	}
	modality, ok := ad.ParseModality(string(in.Modality))
	if !ok {
		return nil, apperr.InvalidInput(op, fmt.Sprintf("unsupported ad type %q", in.Modality))
	}
	in.Modality = modality

	ctx, span := observability.StartSpan(ctx, "evaluation.evaluate",
		attribute.String("evaluation.modality", string(modality)),
		attribute.String("persona.id", persona.ID.String()),
	)

	prompt, err := e.prepare(ctx, persona, in)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}

	aiCtx, cancel := detached(ctx, e.cfg.Timeout)
	defer cancel()
	raw, err := e.ai.Generate(aiCtx, prompt)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, providerUnavailable(op, err)
	}

	res, declared, err := parseEvaluation(raw, modality)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, parseFailure(e.log, apperr.KindEvaluationParseFailed, op, "could not parse the AI evaluation", raw, err)
	}
	if declared != "" && declared != res.Winner {
		e.log.Info("Model winner overridden by recomputed totals",
			"persona_id", persona.ID.String(),
			"modality", string(modality),
			"declared", string(declared),
			"winner", string(res.Winner),
			"ad_a_total", res.AdA.Total,
			"ad_b_total", res.AdB.Total,
		)
	}
	res.Persona = *persona
	e.metrics.ObserveEvaluation(string(modality), string(res.Winner))

	span.SetAttributes(
		attribute.String("evaluation.winner", string(res.Winner)),
		attribute.Int("evaluation.ad_a_total", res.AdA.Total),
		attribute.Int("evaluation.ad_b_total", res.AdB.Total),
	)
	observability.EndSpan(span, nil)
	return res, nil
}

// parseEvaluation validates a model response. declared is the model's own winner, if any.
func parseEvaluation(raw string, modality ad.Modality) (*ad.EvaluationResult, ad.Winner, error) {
	m, err := llmjson.DecodeMap(raw)
	if err != nil {
		return nil, "", err
	}
	aObj, err := llmjson.Object(m, "ad_a_scores")
	if err != nil {
		return nil, "", err
	}
	bObj, err := llmjson.Object(m, "ad_b_scores")
	if err != nil {
		return nil, "", err
	}

	criteria := usedCriteria(m, aObj, bObj, modality)
	aScores, err := readScores(aObj, criteria)
	if err != nil {
		return nil, "", fmt.Errorf("ad_a_scores: %w", err)
	}
	bScores, err := readScores(bObj, criteria)
	if err != nil {
		return nil, "", fmt.Errorf("ad_b_scores: %w", err)
	}
	explanation, err := llmjson.String(m, "explanation")
	if err != nil {
		return nil, "", err
	}

	a := ad.NewScoreSet(criteria, aScores)
	b := ad.NewScoreSet(criteria, bScores)
	if err := a.Validate(); err != nil {
		return nil, "", err
	}
	if err := b.Validate(); err != nil {
		return nil, "", err
	}

	var declared ad.Winner
	if w, err := llmjson.String(m, "winner"); err == nil {
		declared = normalizeWinner(w)
	}

	return &ad.EvaluationResult{
		AdA:           a,
		AdB:           b,
		Winner:        ad.DecideWinner(a, b),
		Explanation:   strings.TrimSpace(explanation),
		CriteriaNames: append([]string(nil), criteria...),
		AdType:        modality,
	}, declared, nil
}

// usedCriteria prefers the model's criteria_names when every name is scored for both ads.
func usedCriteria(m, a, b map[string]any, modality ad.Modality) []string {
	names, err := llmjson.StringSlice(m, "criteria_names")
	if err != nil || len(names) == 0 {
		return ad.DefaultCriteria(modality)
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || strings.EqualFold(n, "total") {
			return ad.DefaultCriteria(modality)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		if _, ok := a[n]; !ok {
			return ad.DefaultCriteria(modality)
		}
		if _, ok := b[n]; !ok {
			return ad.DefaultCriteria(modality)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func readScores(obj map[string]any, criteria []string) (map[string]int, error) {
	out := make(map[string]int, len(criteria))
	for _, c := range criteria {
		f, err := llmjson.Number(obj, c)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || f < ad.MinScore || f > ad.MaxScore {
			return nil, fmt.Errorf("score for %q out of range: %v", c, f)
		}
		out[c] = int(math.Round(f))
	}
	return out, nil
}

func normalizeWinner(s string) ad.Winner {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "ad a", "a", "ad_a":
		return ad.WinnerA
	case "ad b", "b", "ad_b":
		return ad.WinnerB
	default:
		return ""
	}
}
