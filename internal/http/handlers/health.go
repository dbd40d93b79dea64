package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

// GET /
func (h *HealthHandler) Banner(c *gin.Context) {
	c.String(http.StatusOK, "Ad persona evaluation API is running")
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "active", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.RespondError(c, &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: "HealthHandler.Ready", Message: "record store unreachable", Cause: err})
			return
		}
	}
	response.RespondOK(c, gin.H{"status": "ready"})
}
