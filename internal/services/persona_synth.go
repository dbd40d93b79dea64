package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/llmjson"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/prompts"
)

type PersonaSynthesizer interface {
	// Synthesize turns an audience description into a validated, unsaved persona.
	Synthesize(ctx context.Context, description string) (*ad.Persona, error)
}

type personaSynthesizer struct {
	log      *logger.Logger
	ai       llm.Client
	timeout  time.Duration
	validate *validator.Validate
}

func NewPersonaSynthesizer(log *logger.Logger, ai llm.Client, timeout time.Duration) PersonaSynthesizer {
	return &personaSynthesizer{
		log:      log.With("service", "PersonaSynthesizer"),
		ai:       ai,
		timeout:  timeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type synthesizedPersona struct {
	Name              string   `validate:"required,max=200"`
	Age               int      `validate:"gt=0,lte=130"`
	Gender            string   `validate:"max=100"`
	Interests         []string `validate:"max=50"`
	PreferredColors   []string `validate:"max=50"`
	TonePreference    string   `validate:"max=500"`
	PersonalityTraits []string `validate:"max=50"`
	FoodPreferences   []string `validate:"max=50"`
	Description       string   `validate:"required"`
}

func (s *personaSynthesizer) Synthesize(ctx context.Context, description string) (*ad.Persona, error) {
	const op = "PersonaSynthesizer.Synthesize"
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.InvalidInput(op, "persona description is required")
	}

	prompt, err := prompts.Build(prompts.PromptPersonaSynthesis, prompts.Input{Description: description})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}

	ctx, span := observability.StartSpan(ctx, "persona.synthesize", attribute.Int("persona.description_len", len(description)))
	aiCtx, cancel := detached(ctx, s.timeout)
	defer cancel()

	raw, err := s.ai.Generate(aiCtx, llm.Prompt{Operation: "synthesize_persona", Text: prompt.Text})
	if err != nil {
		observability.EndSpan(span, err)
		return nil, providerUnavailable(op, err)
	}

	p, err := s.parse(raw)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, parseFailure(s.log, apperr.KindPersonaSynthesisFailed, op, "could not synthesize a persona from the AI response", raw, err)
	}
	span.SetAttributes(attribute.String("persona.name", p.Name))
	observability.EndSpan(span, nil)
	return p, nil
}

func (s *personaSynthesizer) parse(raw string) (*ad.Persona, error) {
	m, err := llmjson.DecodeMap(raw)
	if err != nil {
		return nil, err
	}
	var sp synthesizedPersona
	if sp.Name, err = llmjson.String(m, "name"); err != nil {
		return nil, err
	}
	age, err := llmjson.Number(m, "age")
	if err != nil {
		return nil, err
	}
	if age != math.Trunc(age) || math.Abs(age) > math.MaxInt32 {
		return nil, fmt.Errorf("%q is not a whole number", "age")
	}
	sp.Age = int(age)
	if sp.Gender, err = llmjson.String(m, "gender"); err != nil {
		return nil, err
	}
	if sp.TonePreference, err = llmjson.String(m, "tone_preference"); err != nil {
		return nil, err
	}
	if sp.Description, err = llmjson.String(m, "description"); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*[]string{
		"interests":          &sp.Interests,
		"preferred_colors":   &sp.PreferredColors,
		"personality_traits": &sp.PersonalityTraits,
		"food_preferences":   &sp.FoodPreferences,
	} {
		if *dst, err = llmjson.StringSlice(m, key); err != nil {
			return nil, err
		}
	}
	sp.Name = strings.TrimSpace(sp.Name)
	sp.Description = strings.TrimSpace(sp.Description)
	if err := s.validate.Struct(sp); err != nil {
		return nil, fmt.Errorf("persona validation: %w", err)
	}

	p := &ad.Persona{
		Name:              sp.Name,
		Age:               sp.Age,
		Gender:            sp.Gender,
		Interests:         datatypes.JSONSlice[string](sp.Interests),
		PreferredColors:   datatypes.JSONSlice[string](sp.PreferredColors),
		TonePreference:    sp.TonePreference,
		PersonalityTraits: datatypes.JSONSlice[string](sp.PersonalityTraits),
		FoodPreferences:   datatypes.JSONSlice[string](sp.FoodPreferences),
		Description:       sp.Description,
	}
	p.Normalize()
	return p, nil
}
