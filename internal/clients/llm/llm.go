// Package llm defines the single operation the pipeline needs from a generative model
// provider: submit an instruction (plus optional media) and get text back.
package llm

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// ErrUnsupportedMedia is returned by providers that cannot accept a media type.
var ErrUnsupportedMedia = errors.New("llm: unsupported media type for provider")

// Media is inline binary content attached to a prompt.
type Media struct {
	MimeType string
	Data     []byte
	// URI optionally names the source (gs://...), for providers that can fetch by reference.
	URI string
}

type Prompt struct {
	// Operation labels the call for metrics and traces, e.g. "synthesize_persona".
	Operation   string
	Text        string
	Media       []Media
	Temperature *float32
}

type Client interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Provider() string
}

type instrumented struct {
	inner   Client
	metrics *observability.Metrics
	log     *logger.Logger
}

// Instrument wraps c with latency/outcome metrics and a span per call.
func Instrument(c Client, metrics *observability.Metrics, log *logger.Logger) Client {
	return &instrumented{inner: c, metrics: metrics, log: log.With("client", "LLM", "provider", c.Provider())}
}

func (i *instrumented) Provider() string { return i.inner.Provider() }

func (i *instrumented) Generate(ctx context.Context, p Prompt) (string, error) {
	op := p.Operation
	if op == "" {
		op = "generate"
	}
	ctx, span := observability.StartSpan(ctx, "llm.generate",
		attribute.String("llm.provider", i.inner.Provider()),
		attribute.String("llm.operation", op),
		attribute.Int("llm.media_count", len(p.Media)),
	)
	start := time.Now()
	out, err := i.inner.Generate(ctx, p)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	i.metrics.ObserveAI(i.inner.Provider(), op, outcome, elapsed)
	if err != nil {
		i.log.Warn("model call failed", "operation", op, "elapsed", elapsed.String(), "error", err)
	} else {
		i.log.Debug("model call completed", "operation", op, "elapsed", elapsed.String(), "response_bytes", len(out))
	}
	observability.EndSpan(span, err)
	return out, err
}
