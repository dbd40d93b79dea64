package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type EnhanceHandler struct {
	log      *logger.Logger
	enhancer services.Enhancer
}

func NewEnhanceHandler(log *logger.Logger, enhancer services.Enhancer) *EnhanceHandler {
	return &EnhanceHandler{log: log.With("handler", "EnhanceHandler"), enhancer: enhancer}
}

type enhanceRequest struct {
	ReportID    string `json:"reportId" form:"reportId"`
	AdToEnhance string `json:"adToEnhance" form:"adToEnhance"`
}

// POST /api/enhance-ad
// body: { "reportId": "...", "adToEnhance": "Ad A" | "Ad B" }
func (h *EnhanceHandler) Enhance(c *gin.Context) {
	const op = "EnhanceHandler.Enhance"
	var req enhanceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, apperr.InvalidInput(op, "malformed enhancement request"))
		return
	}
	reportID, err := uuid.Parse(strings.TrimSpace(req.ReportID))
	if err != nil {
		response.RespondError(c, apperr.InvalidInput(op, "reportId must be a valid report id"))
		return
	}
	res, err := h.enhancer.Enhance(c.Request.Context(), reportID, req.AdToEnhance)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}
