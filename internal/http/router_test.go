package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/data/repos/testutil"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	httpH "github.com/yungbote/adpersona-backend/internal/http/handlers"
	httpMW "github.com/yungbote/adpersona-backend/internal/http/middleware"
	"github.com/yungbote/adpersona-backend/internal/http/response"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/services"
)

const testSecret = "router-test-secret"

type stubSynth struct{}

func (stubSynth) Synthesize(_ context.Context, description string) (*ad.Persona, error) {
	p := &ad.Persona{Name: "Sam Ortiz", Age: 41, Gender: "male", Description: description}
	p.Normalize()
	return p, nil
}

type failingBatches struct{}

func (failingBatches) Run(context.Context, services.BatchRequest) (*services.BatchResult, error) {
	done := uuid.New()
	return nil, &services.BatchError{
		BatchID:            uuid.NewString(),
		Index:              1,
		Total:              3,
		PersonaID:          uuid.New(),
		PersonaName:        "Priya",
		CompletedReportIDs: []uuid.UUID{done},
		Err:                &apperr.Error{Kind: apperr.KindProviderUnavailable, Op: "test", Message: "AI provider timed out", Cause: errors.New("deadline")},
	}
}

func (failingBatches) Progress(context.Context, string) (*ad.BatchProgress, error) {
	return nil, apperr.NotFound("test", "batch not found")
}

type routerFixture struct {
	engine *gin.Engine
	seed   func(id string, role auth.Role)
}

func newTestRouter(t *testing.T, resolver services.IdentityResolver) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	profiles := repos.NewProfileRepo(db, log, 0)
	personas := repos.NewPersonaRepo(db, log, 0)
	reports := repos.NewReportRepo(db, log, 0)

	authSvc := services.NewAuthService(log, resolver, profiles, services.AuthConfig{})
	r := NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authSvc),
		HealthHandler:  httpH.NewHealthHandler(nil),
		PersonaHandler: httpH.NewPersonaHandler(log, services.NewPersonaService(log, personas, stubSynth{}), stubSynth{}),
		ReportHandler:  httpH.NewReportHandler(log, services.NewReportService(log, reports)),
		BatchHandler:   httpH.NewBatchHandler(log, failingBatches{}, nil, 0),
	})
	return routerFixture{
		engine: r,
		seed: func(id string, role auth.Role) {
			testutil.SeedProfile(t, context.Background(), db, id, role)
		},
	}
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	resolver, err := services.NewJWTResolver(testSecret)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	f := newTestRouter(t, resolver)
	for _, path := range []string{"/", "/health", "/ready"} {
		if rec := do(f.engine, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestCapabilityGate(t *testing.T) {
	resolver, err := services.NewJWTResolver(testSecret)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	f := newTestRouter(t, resolver)
	f.seed("admin-1", auth.RoleAdmin)
	f.seed("analyst-1", auth.RoleAnalyst)
	admin, analyst := signToken(t, "admin-1"), signToken(t, "analyst-1")

	rec := do(f.engine, http.MethodGet, "/api/personas", "", "")
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec).Code != "unauthenticated" {
		t.Fatalf("no token: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(f.engine, http.MethodGet, "/api/personas", signToken(t, "stranger"), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no role record: status %d", rec.Code)
	}

	rec = do(f.engine, http.MethodPost, "/api/personas", analyst, `{"prompt":"Retired cyclists"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("analyst create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created ad.Persona
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if created.Description != "Retired cyclists" || created.CreatedBy != "analyst-1" {
		t.Fatalf("unexpected persona %+v", created)
	}

	rec = do(f.engine, http.MethodDelete, "/api/personas/"+created.ID.String(), analyst, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("analyst delete: status %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; msg != `insufficient permissions: required capability "delete"` {
		t.Fatalf("forbidden message %q", msg)
	}

	rec = do(f.engine, http.MethodDelete, "/api/personas/"+created.ID.String(), admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = do(f.engine, http.MethodGet, "/api/personas/"+created.ID.String(), admin, "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "not_found" {
		t.Fatalf("deleted persona: status %d", rec.Code)
	}
}

func TestBypassModeServesAnalystRole(t *testing.T) {
	f := newTestRouter(t, nil)

	rec := do(f.engine, http.MethodGet, "/api/analysis-reports", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("bypass read: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = do(f.engine, http.MethodDelete, "/api/analysis-reports/"+uuid.NewString(), "", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bypass delete: status %d", rec.Code)
	}
}

func TestBatchFailureEnvelope(t *testing.T) {
	f := newTestRouter(t, nil)

	rec := do(f.engine, http.MethodPost, "/api/evaluations/batch", "", `{"persona_prompt":"x","ad_type":"text","ad_a_text":"A","ad_b_text":"B"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != "provider_unavailable" {
		t.Fatalf("code %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "persona 2 of 3") || !strings.Contains(apiErr.Message, "Priya") {
		t.Fatalf("message %q", apiErr.Message)
	}
	if apiErr.Details["persona_index"] != float64(1) {
		t.Fatalf("details %v", apiErr.Details)
	}
	if ids, _ := apiErr.Details["completed_report_ids"].([]any); len(ids) != 1 {
		t.Fatalf("completed report ids %v", apiErr.Details["completed_report_ids"])
	}
}
