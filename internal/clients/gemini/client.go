package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string
}

// Client talks to the Gemini API. The underlying SDK client is built on first use
// and shared by all callers.
type Client struct {
	cfg Config
	log *logger.Logger

	once    sync.Once
	sdk     *genai.Client
	initErr error
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, log: log.With("service", "GeminiClient", "model", cfg.Model)}, nil
}

func (c *Client) Provider() string { return "gemini" }

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.sdk, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if c.initErr != nil {
			c.log.Error("gemini client init failed", "error", c.initErr)
		}
	})
	return c.sdk, c.initErr
}

func (c *Client) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	sdk, err := c.client(context.WithoutCancel(ctx))
	if err != nil {
		return "", fmt.Errorf("gemini init: %w", err)
	}

	parts := make([]*genai.Part, 0, 1+len(p.Media))
	parts = append(parts, genai.NewPartFromText(p.Text))
	for _, m := range p.Media {
		if len(m.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(m.Data, m.MimeType))
		} else if m.URI != "" {
			parts = append(parts, genai.NewPartFromURI(m.URI, m.MimeType))
		}
	}

	var cfg *genai.GenerateContentConfig
	if p.Temperature != nil {
		cfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(*p.Temperature)}
	}

	resp, err := sdk.Models.GenerateContent(ctx, c.cfg.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}
