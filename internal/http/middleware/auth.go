package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/ctxutil"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

const principalKey = "principal"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth resolves the caller and attaches the principal to the request.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := am.authService.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.RespondError(c, err)
			return
		}
		bypassed := am.authService.Bypassed()
		if bypassed {
			am.log.Warn("Request served without authentication", "path", c.Request.URL.Path, "role", string(p.Role))
		}

		ctx := c.Request.Context()
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil {
			rd = &ctxutil.RequestData{}
			ctx = ctxutil.WithRequestData(ctx, rd)
		}
		rd.IdentityID = p.ID
		rd.Email = p.Email
		rd.Role = string(p.Role)
		rd.Anonymous = bypassed

		c.Request = c.Request.WithContext(ctx)
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireCapability rejects principals lacking any of caps. It must run after RequireAuth.
func (am *AuthMiddleware) RequireCapability(caps ...auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := am.authService.Authorize(Principal(c), caps...); err != nil {
			if apperr.IsKind(err, apperr.KindForbidden) {
				am.log.Warn("Capability check failed",
					"path", c.Request.URL.Path,
					"identity_id", ctxutil.IdentityID(c.Request.Context()),
					"error", err,
				)
			}
			response.RespondError(c, err)
			return
		}
		c.Next()
	}
}

// Principal returns the caller attached by RequireAuth, or nil.
func Principal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}
