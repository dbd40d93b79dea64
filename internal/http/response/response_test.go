package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

type batchLike struct{ err error }

func (b *batchLike) Error() string                { return "batch: " + b.err.Error() }
func (b *batchLike) Unwrap() error                { return b.err }
func (b *batchLike) PublicMessage() string        { return "persona 2 failed" }
func (b *batchLike) ErrorDetails() map[string]any { return map[string]any{"persona_index": 1} }

func render(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondError(c, err)
	var env ErrorEnvelope
	if uerr := json.Unmarshal(rec.Body.Bytes(), &env); uerr != nil {
		t.Fatalf("decode body: %v", uerr)
	}
	return rec.Code, env
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
		wantMsg  string
	}{
		{"forbidden", apperr.Forbidden("op", `insufficient permissions: required capability "delete"`), http.StatusForbidden, "forbidden", `insufficient permissions: required capability "delete"`},
		{"parse failure hides raw text", apperr.WithDiagnostic(apperr.KindEvaluationParseFailed, "op", "could not parse", "RAW MODEL TEXT", nil), http.StatusBadGateway, "evaluation_parse_failed", "could not parse"},
		{"plain error is internal", errors.New("db password is hunter2"), http.StatusInternalServerError, "internal", "internal error"},
		{"wrapped internal", apperr.Wrap(apperr.KindInternal, "op", errors.New("secret detail")), http.StatusInternalServerError, "internal", "internal error"},
		{"store unavailable", apperr.New(apperr.KindStoreUnavailable, "op", "store down"), http.StatusServiceUnavailable, "store_unavailable", "store down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := render(t, tt.err)
			if code != tt.wantCode {
				t.Fatalf("status: got=%d want=%d", code, tt.wantCode)
			}
			if env.Error.Code != tt.wantKind || env.Error.Message != tt.wantMsg {
				t.Fatalf("envelope: got=%+v", env.Error)
			}
		})
	}
}

func TestRespondErrorBatchDetails(t *testing.T) {
	code, env := render(t, &batchLike{err: apperr.New(apperr.KindProviderUnavailable, "op", "AI provider unavailable")})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status: got=%d", code)
	}
	if env.Error.Message != "persona 2 failed" {
		t.Fatalf("message: got=%q", env.Error.Message)
	}
	if env.Error.Details["persona_index"] != float64(1) {
		t.Fatalf("details: got=%v", env.Error.Details)
	}
}
