package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/data/db"
	apphttp "github.com/yungbote/adpersona-backend/internal/http"
	httpH "github.com/yungbote/adpersona-backend/internal/http/handlers"
	httpMW "github.com/yungbote/adpersona-backend/internal/http/middleware"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	metrics := observability.NewMetrics()
	reposet := wireRepos(dbService.DB(), log, cfg)

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	serviceset := wireServices(log, cfg, reposet, clients, metrics)

	log.Info("Wiring handlers...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		CORSOrigins:       cfg.CORSOrigins,
		ServiceName:       serviceName,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, serviceset.Auth),
		HealthHandler:     httpH.NewHealthHandler(dbService),
		PersonaHandler:    httpH.NewPersonaHandler(log, serviceset.Personas, serviceset.Synth),
		ReportHandler:     httpH.NewReportHandler(log, serviceset.Reports),
		EvaluationHandler: httpH.NewEvaluationHandler(log, serviceset.Evaluations, clients.Artifacts, cfg.UploadMaxBytes),
		BatchHandler:      httpH.NewBatchHandler(log, serviceset.Batches, clients.Artifacts, cfg.UploadMaxBytes),
		EnhanceHandler:    httpH.NewEnhanceHandler(log, serviceset.Enhancer),
	})

	return &App{
		Log:          log,
		DB:           dbService.DB(),
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and metrics until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Metrics.Serve(ctx, a.Cfg.MetricsAddr, a.Log)
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
