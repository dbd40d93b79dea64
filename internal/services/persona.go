package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type PersonaService interface {
	List(ctx context.Context) ([]*ad.Persona, error)
	Get(ctx context.Context, id uuid.UUID) (*ad.Persona, error)
	// CreateFromPrompt synthesizes a persona and stores it with the prompt as its description.
	CreateFromPrompt(ctx context.Context, prompt, createdBy string) (*ad.Persona, error)
	Update(ctx context.Context, id uuid.UUID, patch ad.PersonaPatch) (*ad.Persona, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type personaService struct {
	log      *logger.Logger
	repo     repos.PersonaRepo
	synth    PersonaSynthesizer
	validate *validator.Validate
}

func NewPersonaService(log *logger.Logger, repo repos.PersonaRepo, synth PersonaSynthesizer) PersonaService {
	return &personaService{
		log:      log.With("service", "PersonaService"),
		repo:     repo,
		synth:    synth,
		validate: validator.New(),
	}
}

func (ps *personaService) List(ctx context.Context) ([]*ad.Persona, error) {
	return ps.repo.List(ctx, nil)
}

func (ps *personaService) Get(ctx context.Context, id uuid.UUID) (*ad.Persona, error) {
	return ps.repo.GetByID(ctx, nil, id)
}

func (ps *personaService) CreateFromPrompt(ctx context.Context, prompt, createdBy string) (*ad.Persona, error) {
	prompt = strings.TrimSpace(prompt)
	p, err := ps.synth.Synthesize(ctx, prompt)
	if err != nil {
		return nil, err
	}
	p.Description = prompt
	p.CreatedBy = createdBy
	created, err := ps.repo.Create(context.WithoutCancel(ctx), nil, p)
	if err != nil {
		return nil, err
	}
	ps.log.Info("Persona created", "persona_id", created.ID.String(), "created_by", createdBy)
	return created, nil
}

func (ps *personaService) Update(ctx context.Context, id uuid.UUID, patch ad.PersonaPatch) (*ad.Persona, error) {
	const op = "PersonaService.Update"
	if err := ps.validate.Struct(patch); err != nil {
		return nil, apperr.InvalidInput(op, "invalid persona fields: "+fieldList(err))
	}
	if len(patch.Updates()) == 0 {
		return nil, apperr.InvalidInput(op, "no persona fields to update")
	}
	return ps.repo.Update(ctx, nil, id, patch)
}

func (ps *personaService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ps.repo.Delete(ctx, nil, id); err != nil {
		return err
	}
	ps.log.Info("Persona deleted", "persona_id", id.String())
	return nil
}

// fieldList names the fields a validator error complains about.
func fieldList(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return strings.Join(names, ", ")
}
