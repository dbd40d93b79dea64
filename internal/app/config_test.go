package app

import (
	"testing"
	"time"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "AI_TIMEOUT", "AUTH_BYPASS_ROLE", "UPLOAD_MAX_BYTES", "BATCH_CONCURRENCY", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Port != "8000" {
		t.Fatalf("port: %q", cfg.Port)
	}
	if cfg.AITimeout != 30*time.Second || cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("timeouts: ai=%v store=%v", cfg.AITimeout, cfg.StoreTimeout)
	}
	if cfg.AuthBypassRole != auth.RoleAnalyst {
		t.Fatalf("bypass role: %q", cfg.AuthBypassRole)
	}
	if cfg.UploadMaxBytes != services.DefaultUploadMaxBytes {
		t.Fatalf("upload max: %d", cfg.UploadMaxBytes)
	}
	if cfg.Otel.Enabled {
		t.Fatal("otel should be off by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_BYPASS_ROLE", "superuser")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	cfg := LoadConfig()
	if cfg.AuthBypassRole != auth.RoleAnalyst {
		t.Fatalf("unknown bypass role must fall back to analyst, got %q", cfg.AuthBypassRole)
	}
	if cfg.AITimeout != 45*time.Second {
		t.Fatalf("ai timeout: %v", cfg.AITimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if !cfg.Otel.Enabled {
		t.Fatal("an OTLP endpoint should enable tracing")
	}
}

func TestIdentityResolverSelection(t *testing.T) {
	log := logger.Nop()

	r, err := newIdentityResolver(log, Config{})
	if err != nil || r != nil {
		t.Fatalf("no identity config should bypass: r=%v err=%v", r, err)
	}
	r, err = newIdentityResolver(log, Config{SupabaseJWTSecret: "s3cret", SupabaseURL: "https://x.supabase.co"})
	if err != nil || r == nil || r.Name() != "jwt" {
		t.Fatalf("jwt secret should win: r=%v err=%v", r, err)
	}
	r, err = newIdentityResolver(log, Config{SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "anon"})
	if err != nil || r == nil || r.Name() != "supabase" {
		t.Fatalf("supabase resolver expected: r=%v err=%v", r, err)
	}
	if _, err := newIdentityResolver(log, Config{SupabaseURL: "https://x.supabase.co"}); err == nil {
		t.Fatal("half-configured supabase must fail")
	}
}

func TestNewAIClientRejectsUnknownProvider(t *testing.T) {
	if _, err := newAIClient(logger.Nop(), Config{AIProvider: "llama"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := newAIClient(logger.Nop(), Config{AIProvider: "openai", OpenAIAPIKey: "sk-test"}); err != nil {
		t.Fatalf("openai: %v", err)
	}
}
