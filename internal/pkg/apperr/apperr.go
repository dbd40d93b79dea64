package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures at the boundary of the component that detected them.
type Kind string

const (
	KindUnauthenticated        Kind = "unauthenticated"
	KindForbidden              Kind = "forbidden"
	KindInvalidInput           Kind = "invalid_input"
	KindNotFound               Kind = "not_found"
	KindProviderUnavailable    Kind = "provider_unavailable"
	KindPersonaSynthesisFailed Kind = "persona_synthesis_failed"
	KindEvaluationParseFailed  Kind = "evaluation_parse_failed"
	KindEnhancementParseFailed Kind = "enhancement_parse_failed"
	KindStoreUnavailable       Kind = "store_unavailable"
	KindInternal               Kind = "internal"
)

// Error is the canonical application error.
// Diagnostic holds raw upstream text (model output) for logs only; it is never rendered to clients.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	Cause      error
	Diagnostic string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message)}
}

// Wrap annotates err with a kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: err.Error(), Cause: err}
}

// WithDiagnostic attaches raw upstream text to a new error of the given kind.
func WithDiagnostic(kind Kind, op, message, diagnostic string, cause error) *Error {
	return &Error{
		Kind:       kind,
		Op:         strings.TrimSpace(op),
		Message:    strings.TrimSpace(message),
		Cause:      cause,
		Diagnostic: diagnostic,
	}
}

func Unauthenticated(op, message string) *Error { return New(KindUnauthenticated, op, message) }
func Forbidden(op, message string) *Error       { return New(KindForbidden, op, message) }
func InvalidInput(op, message string) *Error    { return New(KindInvalidInput, op, message) }
func NotFound(op, message string) *Error        { return New(KindNotFound, op, message) }

// KindOf returns the kind of the outermost *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return "internal error"
}

// DiagnosticOf returns the first diagnostic found along the chain.
func DiagnosticOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Diagnostic != "" {
			return e.Diagnostic
		}
		err = errors.Unwrap(err)
	}
	return ""
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindPersonaSynthesisFailed, KindEvaluationParseFailed, KindEnhancementParseFailed:
		return http.StatusBadGateway
	case KindProviderUnavailable, KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
