// Package dberr maps store failures onto application error kinds.
package dberr

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

const DefaultTimeout = 5 * time.Second

// WithTimeout bounds a single store call. d <= 0 uses DefaultTimeout.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// MapError classifies err for op. Errors that already carry a kind pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "record not found", Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "record store timed out", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "23503":
			// foreign_key_violation
			return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "referenced record does not exist", Cause: err}
		case code == "23505", code == "22P02", code == "23502":
			// unique_violation, invalid_text_representation, not_null_violation
			return &apperr.Error{Kind: apperr.KindInvalidInput, Op: op, Message: "record rejected by store", Cause: err}
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57"), strings.HasPrefix(code, "53"):
			return &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "record store unavailable", Cause: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "record store unreachable", Cause: err}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint failed") {
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "referenced record does not exist", Cause: err}
	}
	return &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "record store failure", Cause: err}
}
