package services

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

const (
	defaultAITimeout = 30 * time.Second
	rawLogLimit      = 2048
)

// detached returns a context that survives client disconnects but still expires after d.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultAITimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func providerUnavailable(op string, err error) error {
	msg := "AI provider unavailable"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "AI provider timed out"
	case errors.Is(err, llm.ErrUnsupportedMedia):
		msg = "AI provider does not support this media type"
	}
	return &apperr.Error{Kind: apperr.KindProviderUnavailable, Op: op, Message: msg, Cause: err}
}

// parseFailure logs the raw model output (truncated) and returns an error carrying it as a diagnostic.
func parseFailure(log *logger.Logger, kind apperr.Kind, op, message, raw string, cause error) error {
	log.Warn("Unparsable model response",
		"op", op,
		"error", cause,
		"raw", logger.Truncate(raw, rawLogLimit),
	)
	return apperr.WithDiagnostic(kind, op, message, raw, cause)
}
