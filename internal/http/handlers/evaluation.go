package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

// multipartOverhead covers form fields and part headers on top of the two creatives.
const multipartOverhead = 1 << 20

type EvaluationHandler struct {
	log         *logger.Logger
	evaluations services.EvaluationService
	artifacts   services.ArtifactStore
	maxBytes    int64
}

func NewEvaluationHandler(log *logger.Logger, evaluations services.EvaluationService, artifacts services.ArtifactStore, maxUploadBytes int64) *EvaluationHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultUploadMaxBytes
	}
	return &EvaluationHandler{
		log:         log.With("handler", "EvaluationHandler"),
		evaluations: evaluations,
		artifacts:   artifacts,
		maxBytes:    maxUploadBytes,
	}
}

type textEvaluationRequest struct {
	PersonaID     string `json:"persona_id" form:"persona_id"`
	PersonaPrompt string `json:"persona_prompt" form:"persona_prompt"`
	AdAText       string `json:"ad_a_text" form:"ad_a_text"`
	AdBText       string `json:"ad_b_text" form:"ad_b_text"`
}

// POST /evaluate-ads
func (h *EvaluationHandler) EvaluateImages(c *gin.Context) {
	h.evaluateMedia(c, ad.ModalityImage)
}

// POST /evaluate-video-ads
func (h *EvaluationHandler) EvaluateVideos(c *gin.Context) {
	h.evaluateMedia(c, ad.ModalityVideo)
}

// POST /evaluate-text-ads
// multipart, urlencoded or JSON: persona_prompt | persona_id, ad_a_text, ad_b_text
func (h *EvaluationHandler) EvaluateText(c *gin.Context) {
	const op = "EvaluationHandler.EvaluateText"
	var req textEvaluationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, apperr.InvalidInput(op, "malformed text evaluation request"))
		return
	}
	sel, err := personaSelector(op, req.PersonaID, req.PersonaPrompt)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	res, err := h.evaluations.Evaluate(c.Request.Context(), sel, services.EvaluationInput{
		Modality: ad.ModalityText,
		AdAText:  req.AdAText,
		AdBText:  req.AdBText,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *EvaluationHandler) evaluateMedia(c *gin.Context, modality ad.Modality) {
	op := "EvaluationHandler.Evaluate" + strings.ToUpper(string(modality[:1])) + string(modality[1:])
	form, err := parseMultipart(c, op, 2*h.maxBytes+multipartOverhead)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	sel, err := personaSelector(op, formValue(form, "persona_id"), formValue(form, "persona_prompt"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	a, b, cleanup, err := saveCreatives(c.Request.Context(), h.artifacts, op, form)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	defer cleanup()

	res, err := h.evaluations.Evaluate(c.Request.Context(), sel, services.EvaluationInput{
		Modality: modality,
		AdA:      a,
		AdB:      b,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func personaSelector(op, rawID, prompt string) (services.PersonaSelector, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return services.PersonaSelector{}, apperr.InvalidInput(op, "invalid persona id")
		}
		return services.PersonaSelector{ID: id}, nil
	}
	if strings.TrimSpace(prompt) == "" {
		return services.PersonaSelector{}, apperr.InvalidInput(op, "persona_prompt or persona_id is required")
	}
	return services.PersonaSelector{Prompt: prompt}, nil
}

func parseMultipart(c *gin.Context, op string, limit int64) (*multipart.Form, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.InvalidInput(op, "file size too large")
		}
		return nil, apperr.InvalidInput(op, "request must be multipart/form-data")
	}
	return c.Request.MultipartForm, nil
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// saveCreatives stores the ad_a and ad_b uploads. The returned cleanup removes both.
func saveCreatives(ctx context.Context, store services.ArtifactStore, op string, form *multipart.Form) (services.ArtifactRef, services.ArtifactRef, func(), error) {
	var refs []services.ArtifactRef
	cleanup := func() {
		for _, ref := range refs {
			_ = store.Delete(context.WithoutCancel(ctx), ref)
		}
	}
	for _, field := range []string{"ad_a", "ad_b"} {
		files := form.File[field]
		if len(files) == 0 {
			cleanup()
			return services.ArtifactRef{}, services.ArtifactRef{}, func() {}, apperr.InvalidInput(op, "both ad_a and ad_b files are required")
		}
		ref, err := saveOne(ctx, store, field, files[0])
		if err != nil {
			cleanup()
			return services.ArtifactRef{}, services.ArtifactRef{}, func() {}, err
		}
		refs = append(refs, ref)
	}
	return refs[0], refs[1], cleanup, nil
}

func saveOne(ctx context.Context, store services.ArtifactStore, field string, fh *multipart.FileHeader) (services.ArtifactRef, error) {
	f, err := fh.Open()
	if err != nil {
		return services.ArtifactRef{}, apperr.InvalidInput("EvaluationHandler.upload", "could not read "+field)
	}
	defer f.Close()
	return store.Save(ctx, field, fh.Filename, fh.Header.Get("Content-Type"), f)
}
