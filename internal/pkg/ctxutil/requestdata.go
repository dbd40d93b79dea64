package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the per-request identity and correlation state attached by middleware.
type RequestData struct {
	IdentityID string
	Email      string
	Role       string
	Token      string
	RequestID  string
	TraceID    string
	// Anonymous is set when the auth gate ran in bypass mode.
	Anonymous bool
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// IdentityID returns the authenticated identity or "" when none is attached.
func IdentityID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.IdentityID
	}
	return ""
}

func RequestID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.RequestID
	}
	return ""
}
