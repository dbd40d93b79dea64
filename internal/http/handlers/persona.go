package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/ctxutil"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type PersonaHandler struct {
	log      *logger.Logger
	personas services.PersonaService
	synth    services.PersonaSynthesizer
}

func NewPersonaHandler(log *logger.Logger, personas services.PersonaService, synth services.PersonaSynthesizer) *PersonaHandler {
	return &PersonaHandler{log: log.With("handler", "PersonaHandler"), personas: personas, synth: synth}
}

type promptRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

// GET /api/personas
func (h *PersonaHandler) List(c *gin.Context) {
	out, err := h.personas.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/personas/:id
func (h *PersonaHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "PersonaHandler.Get", "id", "persona")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	p, err := h.personas.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/personas
// body: { "prompt": "..." }
func (h *PersonaHandler) Create(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, apperr.InvalidInput("PersonaHandler.Create", "request body must contain a prompt"))
		return
	}
	p, err := h.personas.CreateFromPrompt(c.Request.Context(), req.Prompt, ctxutil.IdentityID(c.Request.Context()))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// PUT /api/personas/:id
func (h *PersonaHandler) Update(c *gin.Context) {
	const op = "PersonaHandler.Update"
	id, err := uuidParam(c, op, "id", "persona")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var patch ad.PersonaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, apperr.InvalidInput(op, "malformed persona update"))
		return
	}
	p, err := h.personas.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// DELETE /api/personas/:id
func (h *PersonaHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "PersonaHandler.Delete", "id", "persona")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.personas.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// POST /generate-persona
// body: { "prompt": "..." }. The persona is returned, not stored.
func (h *PersonaHandler) Generate(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, apperr.InvalidInput("PersonaHandler.Generate", "request body must contain a prompt"))
		return
	}
	p, err := h.synth.Synthesize(c.Request.Context(), req.Prompt)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"persona": p})
}
