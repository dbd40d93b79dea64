package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/adpersona-backend/internal/data/db"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/envutil"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type Config struct {
	Port    string
	LogMode string

	DB db.Config

	AIProvider    string
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIRetries int

	AITimeout       time.Duration
	StoreTimeout    time.Duration
	AuthTimeout     time.Duration
	ArtifactTimeout time.Duration

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	AuthBypassRole    auth.Role

	UploadDir          string
	UploadMaxBytes     int64
	ArtifactGCSBucket  string
	AnnotationsEnabled bool

	RedisAddr        string
	RedisPassword    string
	ProgressTTL      time.Duration
	BatchConcurrency int
	BatchCompensate  bool

	CORSOrigins []string
	MetricsAddr string
	Otel        observability.OtelConfig
}

// LoadDotEnv reads .env when present. Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadConfig() Config {
	role := auth.RoleAnalyst
	if r, ok := auth.ParseRole(envutil.String("AUTH_BYPASS_ROLE", string(auth.RoleAnalyst))); ok {
		role = r
	}
	otlpEndpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	return Config{
		Port:    envutil.String("PORT", "8000"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "postgres"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "adpersona"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "adpersona.db"),
		},

		AIProvider:    strings.ToLower(envutil.String("AI_PROVIDER", "gemini")),
		GoogleAPIKey:  envutil.String("GOOGLE_API_KEY", ""),
		GeminiModel:   envutil.String("GEMINI_MODEL", ""),
		OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:   envutil.String("OPENAI_MODEL", ""),
		OpenAIRetries: envutil.Int("OPENAI_MAX_RETRIES", 0),

		AITimeout:       envutil.Duration("AI_TIMEOUT", 30*time.Second),
		StoreTimeout:    envutil.Duration("STORE_TIMEOUT", 5*time.Second),
		AuthTimeout:     envutil.Duration("AUTH_TIMEOUT", 5*time.Second),
		ArtifactTimeout: envutil.Duration("ARTIFACT_TIMEOUT", 30*time.Second),

		SupabaseURL:       envutil.String("SUPABASE_URL", ""),
		SupabaseAnonKey:   envutil.String("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: envutil.String("SUPABASE_JWT_SECRET", ""),
		AuthBypassRole:    role,

		UploadDir:          envutil.String("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes:     envutil.Int64("UPLOAD_MAX_BYTES", services.DefaultUploadMaxBytes),
		ArtifactGCSBucket:  envutil.String("ARTIFACT_GCS_BUCKET", ""),
		AnnotationsEnabled: envutil.Bool("ANNOTATIONS_ENABLED", false),

		RedisAddr:        envutil.String("REDIS_ADDR", ""),
		RedisPassword:    envutil.String("REDIS_PASSWORD", ""),
		ProgressTTL:      envutil.Duration("BATCH_PROGRESS_TTL", 24*time.Hour),
		BatchConcurrency: envutil.Int("BATCH_CONCURRENCY", 1),
		BatchCompensate:  envutil.Bool("BATCH_COMPENSATE", false),

		CORSOrigins: envutil.List("CORS_ORIGINS"),
		MetricsAddr: envutil.String("METRICS_ADDR", ""),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false) || otlpEndpoint != "",
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "adpersona"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Exporter:    envutil.String("OTEL_EXPORTER", ""),
			Endpoint:    otlpEndpoint,
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
		},
	}
}
