package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// ErrInvalidToken means the provider rejected the token.
var ErrInvalidToken = errors.New("supabase: invalid or expired token")

type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Client resolves bearer tokens through GET {URL}/auth/v1/user.
type Client struct {
	log        *logger.Logger
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" || strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("supabase: SUPABASE_URL and SUPABASE_ANON_KEY are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		log:        log.With("service", "SupabaseIdentity"),
		baseURL:    base,
		anonKey:    strings.TrimSpace(cfg.AnonKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Name() string { return "supabase" }

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase user lookup: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("supabase user lookup: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("supabase user lookup: http %d", resp.StatusCode)
	}

	var u userResponse
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("supabase user decode: %w", err)
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, ErrInvalidToken
	}
	return &auth.Identity{ID: u.ID, Email: u.Email}, nil
}
