package auth

import (
	"context"

	"github.com/debemdeboas/yasny-slukh/internal/session"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

// ContextKeySession is the key for the admin session in request context
const ContextKeySession ContextKey = "adminSession"

// ContextWithSession returns a new context carrying the admin session
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// SessionFromContext extracts the admin session from context
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(ContextKeySession).(*session.Session)
	return s, ok && s != nil
}
