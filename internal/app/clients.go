package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/adpersona-backend/internal/clients/gcp"
	"github.com/yungbote/adpersona-backend/internal/clients/gemini"
	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/clients/openai"
	"github.com/yungbote/adpersona-backend/internal/clients/redis"
	"github.com/yungbote/adpersona-backend/internal/clients/supabase"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type Clients struct {
	AI        llm.Client
	Identity  services.IdentityResolver
	Progress  services.ProgressTracker
	Artifacts services.ArtifactStore
	Annotator services.Annotator

	closers []io.Closer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	ai, err := newAIClient(log, cfg)
	if err != nil {
		return Clients{}, err
	}
	c.AI = llm.Instrument(ai, metrics, log)

	identity, err := newIdentityResolver(log, cfg)
	if err != nil {
		return Clients{}, err
	}
	c.Identity = identity

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		store, err := redis.NewProgressStore(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, TTL: cfg.ProgressTTL}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis progress store: %w", err)
		}
		c.Progress = store
		c.closers = append(c.closers, store)
	} else {
		log.Info("REDIS_ADDR not set; batch progress kept in memory")
		c.Progress = services.NewMemoryProgressTracker(cfg.ProgressTTL)
	}

	if bucketName := strings.TrimSpace(cfg.ArtifactGCSBucket); bucketName != "" {
		bucket, err := gcp.NewBucket(ctx, bucketName, log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init artifact bucket: %w", err)
		}
		c.closers = append(c.closers, bucket)
		c.Artifacts = services.NewGCSArtifactStore(log, bucket, cfg.UploadMaxBytes, cfg.ArtifactTimeout)
	} else {
		store, err := services.NewLocalArtifactStore(log, cfg.UploadDir, cfg.UploadMaxBytes)
		if err != nil {
			c.Close()
			return Clients{}, err
		}
		c.Artifacts = store
	}

	if cfg.AnnotationsEnabled {
		c.Annotator = c.wireAnnotator(ctx, log, cfg)
	}
	return c, nil
}

func newAIClient(log *logger.Logger, cfg Config) (llm.Client, error) {
	switch cfg.AIProvider {
	case "", "gemini":
		c, err := gemini.New(gemini.Config{APIKey: cfg.GoogleAPIKey, Model: cfg.GeminiModel}, log)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		return c, nil
	case "openai":
		c, err := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: cfg.OpenAIRetries,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}
}

// newIdentityResolver prefers local JWT verification, then the Supabase user endpoint.
// A nil resolver leaves the auth gate in bypass mode.
func newIdentityResolver(log *logger.Logger, cfg Config) (services.IdentityResolver, error) {
	if cfg.SupabaseJWTSecret != "" {
		return services.NewJWTResolver(cfg.SupabaseJWTSecret)
	}
	if cfg.SupabaseURL != "" || cfg.SupabaseAnonKey != "" {
		c, err := supabase.New(supabase.Config{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey, Timeout: cfg.AuthTimeout}, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}

// wireAnnotator is best effort: creative annotations only enrich prompts.
func (c *Clients) wireAnnotator(ctx context.Context, log *logger.Logger, cfg Config) services.Annotator {
	images, err := gcp.NewImageAnnotator(ctx, log)
	if err != nil {
		log.Warn("Vision annotator unavailable", "error", err)
		images = nil
	} else {
		c.closers = append(c.closers, images)
	}
	videos, err := gcp.NewVideoAnnotator(ctx, log)
	if err != nil {
		log.Warn("Video annotator unavailable", "error", err)
		videos = nil
	} else {
		c.closers = append(c.closers, videos)
	}
	if images == nil && videos == nil {
		return nil
	}
	return services.NewGCPAnnotator(log, images, videos, cfg.ArtifactTimeout)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
