package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/ctxutil"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// stubAuth accepts "Bearer admin" and "Bearer analyst" and rejects anything else.
type stubAuth struct{ bypass bool }

func (s stubAuth) Authenticate(_ context.Context, header string) (*auth.Principal, error) {
	if s.bypass {
		return &auth.Principal{Identity: auth.Identity{ID: "anonymous"}, Role: auth.RoleAnalyst}, nil
	}
	switch header {
	case "Bearer admin":
		return &auth.Principal{Identity: auth.Identity{ID: "u-admin", Email: "a@example.com"}, Role: auth.RoleAdmin}, nil
	case "Bearer analyst":
		return &auth.Principal{Identity: auth.Identity{ID: "u-analyst"}, Role: auth.RoleAnalyst}, nil
	}
	return nil, apperr.Unauthenticated("stub", "invalid or expired token")
}

func (s stubAuth) Authorize(p *auth.Principal, required ...auth.Capability) error {
	if p == nil {
		return apperr.Unauthenticated("stub", "authentication required")
	}
	for _, c := range required {
		if !p.Can(c) {
			return apperr.Forbidden("stub", "insufficient permissions: required capability \""+string(c)+"\"")
		}
	}
	return nil
}

func (s stubAuth) Bypassed() bool { return s.bypass }

func newGuardedRouter(svc stubAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), svc)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.DELETE("/api/personas/:id", am.RequireAuth(), am.RequireCapability(auth.CapDelete), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"identity": rd.IdentityID, "role": rd.Role, "anonymous": rd.Anonymous, "request_id": rd.RequestID})
	})
	return r
}

func TestRequireAuthAndCapability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantKind string
	}{
		{"missing token", "", http.StatusUnauthorized, "unauthenticated"},
		{"analyst cannot delete", "Bearer analyst", http.StatusForbidden, "forbidden"},
		{"admin can delete", "Bearer admin", http.StatusOK, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newGuardedRouter(stubAuth{})
			req := httptest.NewRequest(http.MethodDelete, "/api/personas/123", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantKind == "" {
				return
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tt.wantKind {
				t.Fatalf("code: got=%q want=%q", env.Error.Code, tt.wantKind)
			}
			if tt.wantKind == "forbidden" && env.Error.Message != `insufficient permissions: required capability "delete"` {
				t.Fatalf("message: got=%q", env.Error.Message)
			}
		})
	}
}

func TestRequireAuthAttachesRequestData(t *testing.T) {
	t.Parallel()
	r := newGuardedRouter(stubAuth{})
	req := httptest.NewRequest(http.MethodDelete, "/api/personas/123", nil)
	req.Header.Set("Authorization", "Bearer admin")
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["identity"] != "u-admin" || body["role"] != "admin" || body["request_id"] != "req-42" {
		t.Fatalf("unexpected request data: %v", body)
	}
	if rec.Header().Get("X-Request-Id") != "req-42" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get("X-Request-Id"))
	}
}

func TestRequireAuthBypassIsAnonymous(t *testing.T) {
	t.Parallel()
	r := newGuardedRouter(stubAuth{bypass: true})
	req := httptest.NewRequest(http.MethodDelete, "/api/personas/123", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// The bypass role is analyst, which lacks delete.
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusForbidden)
	}
}
