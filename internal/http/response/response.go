package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// publicMessager errors supply their own client-facing message.
type publicMessager interface {
	PublicMessage() string
}

// detailer errors attach structured details to the envelope.
type detailer interface {
	ErrorDetails() map[string]any
}

// RespondError renders err as the error envelope with the status of its kind.
// Diagnostics never leave the server.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindInternal
	}
	body := APIError{Code: string(kind), Message: apperr.MessageOf(err)}
	if kind == apperr.KindInternal {
		body.Message = "internal error"
	}
	var pm publicMessager
	if errors.As(err, &pm) {
		body.Message = pm.PublicMessage()
	}
	var d detailer
	if errors.As(err, &d) {
		body.Details = d.ErrorDetails()
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
