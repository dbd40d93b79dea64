package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// PersonaSelector names the persona for a one-off evaluation: a stored id or a prompt.
type PersonaSelector struct {
	ID     uuid.UUID
	Prompt string
}

type EvaluationService interface {
	// Evaluate runs a single unpersisted evaluation. A prompt-selected persona is not stored.
	Evaluate(ctx context.Context, sel PersonaSelector, in EvaluationInput) (*ad.EvaluationResult, error)
}

type evaluationService struct {
	log       *logger.Logger
	personas  repos.PersonaRepo
	synth     PersonaSynthesizer
	evaluator Evaluator
}

func NewEvaluationService(log *logger.Logger, personas repos.PersonaRepo, synth PersonaSynthesizer, evaluator Evaluator) EvaluationService {
	return &evaluationService{
		log:       log.With("service", "EvaluationService"),
		personas:  personas,
		synth:     synth,
		evaluator: evaluator,
	}
}

func (es *evaluationService) Evaluate(ctx context.Context, sel PersonaSelector, in EvaluationInput) (*ad.EvaluationResult, error) {
	const op = "EvaluationService.Evaluate"
	ctx = context.WithoutCancel(ctx)
	if err := validateEvaluationInput(op, in); err != nil {
		return nil, err
	}

	var persona *ad.Persona
	var err error
	switch {
	case sel.ID != uuid.Nil:
		persona, err = es.personas.GetByID(ctx, nil, sel.ID)
	case strings.TrimSpace(sel.Prompt) != "":
		persona, err = es.synth.Synthesize(ctx, sel.Prompt)
	default:
		return nil, apperr.InvalidInput(op, "persona_id or persona_prompt is required")
	}
	if err != nil {
		return nil, err
	}
	return es.evaluator.Evaluate(ctx, persona, in)
}
