package logger

import (
	"context"
	"log/slog"
)

type visitorKey struct{}
type sessionKey struct{}

// ContextWithVisitor stores the visitor and session identifiers for log extraction.
// Empty values leave the context untouched.
func ContextWithVisitor(ctx context.Context, ref, sid string) context.Context {
	if ref != "" {
		ctx = context.WithValue(ctx, visitorKey{}, ref)
	}
	if sid != "" {
		ctx = context.WithValue(ctx, sessionKey{}, sid)
	}
	return ctx
}

func visitorExtractor(ctx context.Context) (slog.Attr, bool) {
	if ref, ok := ctx.Value(visitorKey{}).(string); ok && ref != "" {
		return VisitorRef(ref), true
	}
	return slog.Attr{}, false
}

func sessionExtractor(ctx context.Context) (slog.Attr, bool) {
	if sid, ok := ctx.Value(sessionKey{}).(string); ok && sid != "" {
		return SessionID(sid), true
	}
	return slog.Attr{}, false
}
