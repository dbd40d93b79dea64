package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/ctxutil"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type BatchHandler struct {
	log       *logger.Logger
	batches   services.BatchOrchestrator
	artifacts services.ArtifactStore
	maxBytes  int64
}

func NewBatchHandler(log *logger.Logger, batches services.BatchOrchestrator, artifacts services.ArtifactStore, maxUploadBytes int64) *BatchHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultUploadMaxBytes
	}
	return &BatchHandler{
		log:       log.With("handler", "BatchHandler"),
		batches:   batches,
		artifacts: artifacts,
		maxBytes:  maxUploadBytes,
	}
}

type batchJSONRequest struct {
	PersonaIDs    []string `json:"persona_ids"`
	PersonaPrompt string   `json:"persona_prompt"`
	AdType        string   `json:"ad_type"`
	AdAText       string   `json:"ad_a_text"`
	AdBText       string   `json:"ad_b_text"`
	BatchID       string   `json:"batch_id"`
}

// POST /api/evaluations/batch
// JSON bodies carry text ads only; image and video batches are multipart with ad_a and ad_b files.
func (h *BatchHandler) Run(c *gin.Context) {
	const op = "BatchHandler.Run"
	var (
		req     services.BatchRequest
		cleanup = func() {}
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := parseMultipart(c, op, 2*h.maxBytes+multipartOverhead)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		ids, err := splitIDs(op, form.Value["persona_ids"])
		if err == nil {
			err = services.CheckBatchSize(op, len(ids))
		}
		if err != nil {
			response.RespondError(c, err)
			return
		}
		req = services.BatchRequest{
			PersonaIDs:    ids,
			PersonaPrompt: formValue(form, "persona_prompt"),
			BatchID:       formValue(form, "batch_id"),
			Input: services.EvaluationInput{
				Modality: ad.Modality(formValue(form, "ad_type")),
				AdAText:  formValue(form, "ad_a_text"),
				AdBText:  formValue(form, "ad_b_text"),
			},
		}
		if m, ok := ad.ParseModality(formValue(form, "ad_type")); ok && m != ad.ModalityText {
			a, b, done, err := saveCreatives(c.Request.Context(), h.artifacts, op, form)
			if err != nil {
				response.RespondError(c, err)
				return
			}
			cleanup = done
			req.Input.AdA, req.Input.AdB = a, b
		}
	} else {
		var body batchJSONRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, apperr.InvalidInput(op, "malformed batch request"))
			return
		}
		ids, err := splitIDs(op, body.PersonaIDs)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		req = services.BatchRequest{
			PersonaIDs:    ids,
			PersonaPrompt: body.PersonaPrompt,
			BatchID:       strings.TrimSpace(body.BatchID),
			Input: services.EvaluationInput{
				Modality: ad.Modality(body.AdType),
				AdAText:  body.AdAText,
				AdBText:  body.AdBText,
			},
		}
	}
	defer cleanup()

	if req.BatchID == "" {
		req.BatchID = strings.TrimSpace(c.GetHeader("X-Batch-Id"))
	}
	req.RequestedBy = ctxutil.IdentityID(c.Request.Context())

	res, err := h.batches.Run(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/evaluations/batches/:id
func (h *BatchHandler) Progress(c *gin.Context) {
	id, err := uuidParam(c, "BatchHandler.Progress", "id", "batch")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	p, err := h.batches.Progress(c.Request.Context(), id.String())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, p)
}
