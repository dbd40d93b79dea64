package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type Repos struct {
	Persona repos.PersonaRepo
	Report  repos.ReportRepo
	Profile repos.ProfileRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Persona: repos.NewPersonaRepo(db, log, cfg.StoreTimeout),
		Report:  repos.NewReportRepo(db, log, cfg.StoreTimeout),
		Profile: repos.NewProfileRepo(db, log, cfg.StoreTimeout),
	}
}

type Services struct {
	Auth        services.AuthService
	Synth       services.PersonaSynthesizer
	Personas    services.PersonaService
	Reports     services.ReportService
	Evaluator   services.Evaluator
	Evaluations services.EvaluationService
	Batches     services.BatchOrchestrator
	Enhancer    services.Enhancer
}

func wireServices(log *logger.Logger, cfg Config, r Repos, c Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	authSvc := services.NewAuthService(log, c.Identity, r.Profile, services.AuthConfig{
		Timeout:    cfg.AuthTimeout,
		BypassRole: cfg.AuthBypassRole,
	})
	synth := services.NewPersonaSynthesizer(log, c.AI, cfg.AITimeout)
	evaluator := services.NewEvaluator(log, c.AI, c.Artifacts, c.Annotator, metrics, services.EvaluatorConfig{
		Timeout:            cfg.AITimeout,
		AnnotationsEnabled: cfg.AnnotationsEnabled,
	})
	return Services{
		Auth:        authSvc,
		Synth:       synth,
		Personas:    services.NewPersonaService(log, r.Persona, synth),
		Reports:     services.NewReportService(log, r.Report),
		Evaluator:   evaluator,
		Evaluations: services.NewEvaluationService(log, r.Persona, synth, evaluator),
		Batches: services.NewBatchOrchestrator(log, r.Persona, r.Report, synth, evaluator, c.Progress, metrics, services.BatchConfig{
			Concurrency: cfg.BatchConcurrency,
			Compensate:  cfg.BatchCompensate,
		}),
		Enhancer: services.NewEnhancer(log, c.AI, r.Report, r.Persona, cfg.AITimeout),
	}
}
