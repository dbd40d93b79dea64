package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/ctxutil"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type ReportHandler struct {
	log     *logger.Logger
	reports services.ReportService
}

func NewReportHandler(log *logger.Logger, reports services.ReportService) *ReportHandler {
	return &ReportHandler{log: log.With("handler", "ReportHandler"), reports: reports}
}

// GET /api/analysis-reports
func (h *ReportHandler) List(c *gin.Context) {
	out, err := h.reports.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/analysis-reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "ReportHandler.Get", "id", "report")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	r, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, r)
}

// POST /api/analysis-reports
func (h *ReportHandler) Create(c *gin.Context) {
	var in services.NewReport
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, apperr.InvalidInput("ReportHandler.Create", "malformed analysis report"))
		return
	}
	r, err := h.reports.Create(c.Request.Context(), in, ctxutil.IdentityID(c.Request.Context()))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, r)
}

// DELETE /api/analysis-reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "ReportHandler.Delete", "id", "report")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/analysis-reports/:id/export
func (h *ReportHandler) Export(c *gin.Context) {
	id, err := uuidParam(c, "ReportHandler.Export", "id", "report")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	body, err := h.reports.ExportCSV(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="analysis-report-`+id.String()+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
