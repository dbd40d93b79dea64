package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/llmjson"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/prompts"
)

// Criteria at or above this score are kept as-is in an enhanced ad.
const maintainThreshold = 8

type Enhancer interface {
	Enhance(ctx context.Context, reportID uuid.UUID, adToEnhance string) (*ad.EnhancementResult, error)
}

type enhancer struct {
	log      *logger.Logger
	ai       llm.Client
	reports  repos.ReportRepo
	personas repos.PersonaRepo
	timeout  time.Duration
	validate *validator.Validate
}

func NewEnhancer(log *logger.Logger, ai llm.Client, reports repos.ReportRepo, personas repos.PersonaRepo, timeout time.Duration) Enhancer {
	return &enhancer{
		log:      log.With("service", "Enhancer"),
		ai:       ai,
		reports:  reports,
		personas: personas,
		timeout:  timeout,
		validate: validator.New(),
	}
}

type enhancedAd struct {
	Description         string   `validate:"required"`
	Improvements        []string `validate:"max=50"`
	ExpectedImpact      string
	TestRecommendations []string
}

func (e *enhancer) Enhance(ctx context.Context, reportID uuid.UUID, adToEnhance string) (*ad.EnhancementResult, error) {
	const op = "Enhancer.Enhance"
	which, ok := ad.ParseWinner(adToEnhance)
	if !ok {
		return nil, apperr.InvalidInput(op, `adToEnhance must be "Ad A" or "Ad B"`)
	}
	if reportID == uuid.Nil {
		return nil, apperr.InvalidInput(op, "reportId is required")
	}

	report, err := e.reports.GetByID(ctx, nil, reportID)
	if err != nil {
		return nil, err
	}
	persona, err := e.personas.GetByID(ctx, nil, report.PersonaID)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "enhancement.enhance",
		attribute.String("report.id", reportID.String()),
		attribute.String("enhancement.ad", string(which)),
	)

	base := report.ScoresFor(which)
	if len(report.CriteriaNames) > 0 {
		base = base.Restrict(report.CriteriaNames)
	}
	pin := prompts.Input{
		Persona:       persona.PromptSummary(),
		Modality:      string(report.AdType),
		AdLabel:       string(which),
		ReportSummary: reportSummary(report),
	}
	for _, c := range base.Criteria {
		cs := prompts.CriterionScore{Name: c, Score: base.Get(c)}
		if cs.Score >= maintainThreshold {
			pin.Maintain = append(pin.Maintain, cs)
		} else {
			pin.Improve = append(pin.Improve, cs)
		}
	}
	prompt, err := prompts.Build(prompts.PromptEnhanceAd, pin)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}

	aiCtx, cancel := detached(ctx, e.timeout)
	defer cancel()
	raw, err := e.ai.Generate(aiCtx, llm.Prompt{Operation: "enhance_ad", Text: prompt.Text})
	if err != nil {
		observability.EndSpan(span, err)
		return nil, providerUnavailable(op, err)
	}

	out, err := e.parse(raw)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, parseFailure(e.log, apperr.KindEnhancementParseFailed, op, "could not parse the AI enhancement", raw, err)
	}

	observability.EndSpan(span, nil)
	return &ad.EnhancementResult{
		EnhancedContent: out.Description,
		Explanation:     out.ExpectedImpact,
		ImprovementSummary: ad.ImprovementSummary{
			Improvements:    out.Improvements,
			PredictedScores: PredictScores(base, out.Improvements),
		},
		TestRecommendations: out.TestRecommendations,
	}, nil
}

// parse accepts {"enhanced_ad": {...}} or the inner object on its own.
func (e *enhancer) parse(raw string) (*enhancedAd, error) {
	m, err := llmjson.DecodeMap(raw)
	if err != nil {
		return nil, err
	}
	if inner, err := llmjson.Object(m, "enhanced_ad"); err == nil {
		m = inner
	} else if _, present := m["enhanced_ad"]; present {
		return nil, err
	}

	out := &enhancedAd{}
	if out.Description, err = llmjson.String(m, "description"); err != nil {
		return nil, err
	}
	out.Description = strings.TrimSpace(out.Description)
	if out.Improvements, err = llmjson.StringSlice(m, "improvements"); err != nil {
		return nil, err
	}
	if _, present := m["expected_impact"]; present {
		if out.ExpectedImpact, err = llmjson.String(m, "expected_impact"); err != nil {
			return nil, err
		}
	}
	out.TestRecommendations = []string{}
	if _, present := m["test_recommendations"]; present {
		if out.TestRecommendations, err = llmjson.StringSlice(m, "test_recommendations"); err != nil {
			return nil, err
		}
	}
	if err := e.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("enhancement validation: %w", err)
	}
	return out, nil
}

// PredictScores nudges base upward for criteria named in the improvements.
// A criterion gains 1 (capped at 10) for each improvement sentence containing its
// human-readable name, case-insensitively. This is plain substring matching.
func PredictScores(base ad.ScoreSet, improvements []string) ad.ScoreSet {
	out := base.Clone()
	for _, imp := range improvements {
		sentence := strings.ToLower(imp)
		for _, c := range out.Criteria {
			if !strings.Contains(sentence, strings.ToLower(ad.HumanizeCriterion(c))) {
				continue
			}
			if out.Scores[c] < ad.MaxScore {
				out.Scores[c]++
			}
		}
	}
	out.Recompute()
	return out
}

func reportSummary(r *ad.AnalysisReport) string {
	s := fmt.Sprintf("Ad A scored %d and Ad B scored %d in total; %s won.", r.AdAScores.Total, r.AdBScores.Total, r.Winner)
	if exp := strings.TrimSpace(r.Explanation); exp != "" {
		s += " " + logger.Truncate(exp, 600)
	}
	return s
}
