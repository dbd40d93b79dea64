package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

const okBody = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"ok\":true}"}]}]}`

func TestGenerateSendsImagesAsDataURLs(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), llm.Prompt{
		Text:  "score these",
		Media: []llm.Media{{MimeType: "image/png", Data: []byte{1, 2, 3}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	require.Len(t, got.Input, 1)
	parts, ok := got.Input[0].Content.([]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)
	assert.True(t, strings.HasPrefix(img["image_url"].(string), "data:image/png;base64,"))
}

func TestGenerateRejectsVideo(t *testing.T) {
	c, err := New(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"}, logger.Nop())
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), llm.Prompt{
		Text:  "x",
		Media: []llm.Media{{MimeType: "video/mp4", Data: []byte{0}}},
	})
	assert.True(t, errors.Is(err, llm.ErrUnsupportedMedia))
}

func TestGenerateDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), llm.Prompt{Text: "x"})
	require.Error(t, err)
	var he *httpError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateRetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL, MaxRetries: 1}, logger.Nop())
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), llm.Prompt{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{}, logger.Nop())
	assert.Error(t, err)
}
