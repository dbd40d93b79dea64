package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	httpH "github.com/yungbote/adpersona-backend/internal/http/handlers"
	httpMW "github.com/yungbote/adpersona-backend/internal/http/middleware"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	ServiceName    string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	PersonaHandler    *httpH.PersonaHandler
	ReportHandler     *httpH.ReportHandler
	EvaluationHandler *httpH.EvaluationHandler
	BatchHandler      *httpH.BatchHandler
	EnhanceHandler    *httpH.EnhanceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Banner)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/ready", cfg.HealthHandler.Ready)
	}

	am := cfg.AuthMiddleware
	if am == nil {
		return r
	}
	need := am.RequireCapability
	protected := r.Group("/")
	protected.Use(am.RequireAuth())

	// Personas
	if h := cfg.PersonaHandler; h != nil {
		protected.GET("/api/personas", need(auth.CapRead), h.List)
		protected.GET("/api/personas/:id", need(auth.CapRead), h.Get)
		protected.POST("/api/personas", need(auth.CapCreate), h.Create)
		protected.PUT("/api/personas/:id", need(auth.CapUpdate), h.Update)
		protected.DELETE("/api/personas/:id", need(auth.CapDelete), h.Delete)
		protected.POST("/generate-persona", need(auth.CapAnalyze), h.Generate)
	}

	// Analysis reports
	if h := cfg.ReportHandler; h != nil {
		protected.GET("/api/analysis-reports", need(auth.CapRead), h.List)
		protected.GET("/api/analysis-reports/:id", need(auth.CapRead), h.Get)
		protected.GET("/api/analysis-reports/:id/export", need(auth.CapExport), h.Export)
		protected.POST("/api/analysis-reports", need(auth.CapCreate), h.Create)
		protected.DELETE("/api/analysis-reports/:id", need(auth.CapDelete), h.Delete)
	}

	// Single evaluations
	if h := cfg.EvaluationHandler; h != nil {
		protected.POST("/evaluate-ads", need(auth.CapAnalyze), h.EvaluateImages)
		protected.POST("/evaluate-video-ads", need(auth.CapAnalyze), h.EvaluateVideos)
		protected.POST("/evaluate-text-ads", need(auth.CapAnalyze), h.EvaluateText)
	}

	// Batches
	if h := cfg.BatchHandler; h != nil {
		protected.POST("/api/evaluations/batch", need(auth.CapAnalyze, auth.CapCreate), h.Run)
		protected.GET("/api/evaluations/batches/:id", need(auth.CapRead), h.Progress)
	}

	if h := cfg.EnhanceHandler; h != nil {
		protected.POST("/api/enhance-ad", need(auth.CapAnalyze), h.Enhance)
	}

	return r
}
